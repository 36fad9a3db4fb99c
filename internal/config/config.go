// Package config — YAML-файл настроек бота (учётная запись Twitch, журнал,
// пути к файлам состояния) с переопределением из окружения.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "conf/twitch.yaml"

// переменные окружения сильнее файла
const (
	EnvUser    = "TWITCH_USER"
	EnvToken   = "TWITCH_OAUTH_KEY"
	EnvChannel = "TWITCH_CHANNEL"
)

var (
	ErrMissingUser  = errors.New("twitch.user is required")
	ErrMissingToken = errors.New("twitch.oauth_key is required")
	ErrInvalidYAML  = errors.New("invalid YAML syntax")
)

type Config struct {
	Twitch TwitchConfig `yaml:"twitch"`
	Log    LogConfig    `yaml:"log"`
	Bot    BotConfig    `yaml:"bot"`
}

type TwitchConfig struct {
	User      string `yaml:"user"`
	OAuthKey  string `yaml:"oauth_key"`
	Channel   string `yaml:"channel"`   // пусто — канал пользователя
	Transport string `yaml:"transport"` // tcp | tls | ws
	Address   string `yaml:"address"`   // пусто — адрес Twitch для транспорта
	QueueSize int    `yaml:"queue_size"`
	RateLimit int    `yaml:"rate_limit"` // сообщений за 30 с, 0 — без ограничения
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type BotConfig struct {
	StateFile      string `yaml:"state_file"`
	ModeratorsFile string `yaml:"moderators_file"`
	CommandsFile   string `yaml:"commands_file"`
}

func Default() Config {
	return Config{
		Twitch: TwitchConfig{Transport: "tcp", QueueSize: 50},
		Log:    LogConfig{Level: "info", Format: "text", File: "twitchbot.log"},
		Bot: BotConfig{
			StateFile:      "conf/botconfig.json",
			ModeratorsFile: "moderators.json",
			CommandsFile:   "commands.json",
		},
	}
}

// Load читает файл поверх значений по умолчанию. Отсутствующий файл не
// ошибка: вернутся значения по умолчанию плюс окружение.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%w in %s: %v", ErrInvalidYAML, path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv(os.LookupEnv)
	cfg.Twitch.OAuthKey = NormalizeToken(cfg.Twitch.OAuthKey)
	return cfg, nil
}

// Save пишет конфиг через временный файл и rename.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvUser); ok && v != "" {
		c.Twitch.User = v
	}
	if v, ok := lookup(EnvToken); ok && v != "" {
		c.Twitch.OAuthKey = v
	}
	if v, ok := lookup(EnvChannel); ok && v != "" {
		c.Twitch.Channel = v
	}
}

// Validate проверяет то, без чего нельзя подключиться.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Twitch.User) == "" {
		errs = append(errs, ErrMissingUser)
	}
	if strings.TrimPrefix(c.Twitch.OAuthKey, "oauth:") == "" {
		errs = append(errs, ErrMissingToken)
	}
	switch c.Twitch.Transport {
	case "", "tcp", "tls", "ws":
	default:
		errs = append(errs, fmt.Errorf("unknown twitch.transport %q", c.Twitch.Transport))
	}
	if c.Twitch.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("twitch.queue_size must not be negative"))
	}
	if c.Twitch.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("twitch.rate_limit must not be negative"))
	}
	return errors.Join(errs...)
}

// NormalizeToken добавляет префикс "oauth:", если его нет.
func NormalizeToken(token string) string {
	token = strings.TrimSpace(token)
	if token == "" || strings.HasPrefix(token, "oauth:") {
		return token
	}
	return "oauth:" + token
}
