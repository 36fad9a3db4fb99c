package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/EgorLis/twitchbot/internal/bot"
	"github.com/EgorLis/twitchbot/internal/chatclient"
	"github.com/EgorLis/twitchbot/internal/config"
	"github.com/EgorLis/twitchbot/internal/logging"
	"github.com/EgorLis/twitchbot/internal/moderators"
	"github.com/EgorLis/twitchbot/internal/usercmd"
)

// сколько ждём штатной остановки перед принудительным закрытием
const shutdownTimeout = 5 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to Twitch chat and serve the channel",
	Args:  cobra.NoArgs,
	RunE:  runBot,
}

func runBot(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w (run \"%s config init\" to create one)", configPath, err, appName)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(cfg.Log.Level)
	logCfg.Format = logging.ParseFormat(cfg.Log.Format)
	logCfg.File = cfg.Log.File
	log, logFile, err := logging.Open(logCfg)
	if err != nil {
		return err
	}
	defer logFile.Close()

	mods, err := moderators.Open(cfg.Bot.ModeratorsFile, log.With("component", "moderators"))
	if err != nil {
		return err
	}
	cmds := usercmd.NewManager(usercmd.NewStore(cfg.Bot.CommandsFile), log.With("component", "usercmd"))

	b := bot.New(log.With("component", "bot"))
	b.SetModerators(mods)
	b.SetUserCommands(cmds)
	if err := b.UseConfig(cfg.Bot.StateFile); err != nil {
		return fmt.Errorf("bot config: %w", err)
	}

	client := chatclient.New(chatConfig(cfg), b, chatOptions(cfg, mods, log)...)
	b.SetClient(client)
	// транспорт закрывается на любом пути выхода
	defer func() {
		if err := client.Close(); err != nil {
			log.Debug("close transport", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), exitSignals...)
	defer stop()

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		b.SetMirror(os.Stdout)
	}
	if err := b.Start(ctx); err != nil {
		return err
	}

	if interactive {
		go runConsole(os.Stdin, client, stop)
		fmt.Fprintln(os.Stdout, "running… type a message to send it, /quit to stop")
	} else {
		log.Info("running… press Ctrl+C to stop")
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("exit signal received")
	case runErr = <-b.Done():
	}

	shutdown(b, log)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func shutdown(b *bot.TwitchBot, log *slog.Logger) {
	stopped := make(chan struct{})
	go func() {
		b.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(shutdownTimeout):
		log.Warn("bot did not stop in time, closing transport")
	}
}

func chatConfig(cfg config.Config) chatclient.Config {
	return chatclient.Config{
		Username:  cfg.Twitch.User,
		Token:     cfg.Twitch.OAuthKey,
		Channel:   cfg.Twitch.Channel,
		Transport: cfg.Twitch.Transport,
		Address:   cfg.Twitch.Address,
	}
}

func chatOptions(cfg config.Config, mods chatclient.Moderators, log *slog.Logger) []chatclient.Option {
	opts := []chatclient.Option{
		chatclient.WithLogger(log.With("component", "chat")),
		chatclient.WithModerators(mods),
		chatclient.WithQueueSize(cfg.Twitch.QueueSize),
	}
	if cfg.Twitch.RateLimit > 0 {
		opts = append(opts, chatclient.WithMessageRate(cfg.Twitch.RateLimit, 30*time.Second))
	}
	return opts
}
