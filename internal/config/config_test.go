package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	t.Setenv(EnvUser, "")
	t.Setenv(EnvToken, "")
	t.Setenv(EnvChannel, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileAndNormalizeToken(t *testing.T) {
	t.Setenv(EnvUser, "")
	t.Setenv(EnvToken, "")
	t.Setenv(EnvChannel, "")

	path := filepath.Join(t.TempDir(), "twitch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
twitch:
  user: nuclearbot
  oauth_key: abc123
  transport: tls
  rate_limit: 20
log:
  level: debug
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "nuclearbot", cfg.Twitch.User)
	assert.Equal(t, "oauth:abc123", cfg.Twitch.OAuthKey)
	assert.Equal(t, "tls", cfg.Twitch.Transport)
	assert.Equal(t, 20, cfg.Twitch.RateLimit)
	assert.Equal(t, 50, cfg.Twitch.QueueSize, "default kept")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "commands.json", cfg.Bot.CommandsFile)
	assert.NoError(t, cfg.Validate())
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twitch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("twitch:\n  user: fromfile\n"), 0o600))
	t.Setenv(EnvUser, "fromenv")
	t.Setenv(EnvToken, "oauth:envtoken")
	t.Setenv(EnvChannel, "somechannel")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fromenv", cfg.Twitch.User)
	assert.Equal(t, "oauth:envtoken", cfg.Twitch.OAuthKey)
	assert.Equal(t, "somechannel", cfg.Twitch.Channel)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twitch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("twitch: [unclosed"), 0o600))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrMissingUser)
	assert.ErrorIs(t, err, ErrMissingToken)

	cfg.Twitch.User = "bot"
	cfg.Twitch.OAuthKey = "oauth:"
	assert.ErrorIs(t, cfg.Validate(), ErrMissingToken)

	cfg.Twitch.OAuthKey = "oauth:x"
	cfg.Twitch.Transport = "udp"
	assert.Error(t, cfg.Validate())

	cfg.Twitch.Transport = "ws"
	assert.NoError(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv(EnvUser, "")
	t.Setenv(EnvToken, "")
	t.Setenv(EnvChannel, "")

	path := filepath.Join(t.TempDir(), "conf", "twitch.yaml")
	cfg := Default()
	cfg.Twitch.User = "bot"
	cfg.Twitch.OAuthKey = "oauth:x"

	require.NoError(t, Save(path, cfg))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "", NormalizeToken("  "))
	assert.Equal(t, "oauth:a", NormalizeToken("a"))
	assert.Equal(t, "oauth:a", NormalizeToken(" oauth:a "))
}
