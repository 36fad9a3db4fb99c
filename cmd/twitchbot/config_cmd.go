package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/EgorLis/twitchbot/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the config file",
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !configInitForce {
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return err
			}
		}
		if err := config.Save(configPath, config.Default()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s, fill in twitch.user and twitch.oauth_key\n", configPath)
		return nil
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Load the config (with environment overrides) and validate it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		channel := cfg.Twitch.Channel
		if channel == "" {
			channel = cfg.Twitch.User
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok: user=%s channel=%s transport=%s\n", cfg.Twitch.User, channel, cfg.Twitch.Transport)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configCheckCmd)
}
