package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/EgorLis/twitchbot/internal/config"
	"github.com/EgorLis/twitchbot/internal/logging"
	"github.com/EgorLis/twitchbot/internal/moderators"
)

var modsCmd = &cobra.Command{
	Use:   "mods",
	Short: "Manage the moderator list",
	Long: `Список модераторов хранится в JSON-файле (bot.moderators_file).
Работающий бот подхватывает изменения файла сам.`,
}

var modsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print moderators",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openModerators(cmd)
		if err != nil {
			return err
		}
		list := store.List()
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "(none)")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(list, "\n"))
		return nil
	},
}

var modsAddCmd = &cobra.Command{
	Use:   "add <name>...",
	Short: "Add moderators",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openModerators(cmd)
		if err != nil {
			return err
		}
		for _, name := range args {
			added, err := store.Add(name)
			if err != nil {
				return err
			}
			if added {
				fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already a moderator\n", name)
			}
		}
		return nil
	},
}

var modsRemoveCmd = &cobra.Command{
	Use:     "remove <name>...",
	Aliases: []string{"rm"},
	Short:   "Remove moderators",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openModerators(cmd)
		if err != nil {
			return err
		}
		for _, name := range args {
			removed, err := store.Remove(name)
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not a moderator\n", name)
			}
		}
		return nil
	},
}

func init() {
	modsCmd.AddCommand(modsListCmd)
	modsCmd.AddCommand(modsAddCmd)
	modsCmd.AddCommand(modsRemoveCmd)
}

// openModerators открывает файл модераторов из конфига. В консоль идут
// только предупреждения.
func openModerators(cmd *cobra.Command) (*moderators.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := logging.New(logging.Config{Level: logging.LevelWarn, Output: cmd.ErrOrStderr()})
	return moderators.Open(cfg.Bot.ModeratorsFile, log)
}
