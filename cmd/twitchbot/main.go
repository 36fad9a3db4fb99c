package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/EgorLis/twitchbot/internal/config"
)

const (
	appName    = "twitchbot"
	appVersion = "0.3.0"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Twitch chat bot",
	Long: `twitchbot подключается к чату Twitch и обслуживает канал:
  - встроенные команды !help, !restart, !stop
  - пользовательские команды (!cmdadd, !cmdrem, !cmdusage, !cmddesc)
  - периодические объявления (!announce)
Без подкоманды работает как "twitchbot run".`,
	Version:       appVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBot,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the YAML config")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(modsCmd)
	rootCmd.AddCommand(configCmd)

	rootCmd.SetVersionTemplate(fmt.Sprintf("%s v%s\n", appName, appVersion))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
