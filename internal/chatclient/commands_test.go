package chatclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noop = CommandFunc(func(ChatClient, string, *Command, string, []string) bool { return true })

func TestRegistryRejectsDuplicatesCaseInsensitive(t *testing.T) {
	r := newCommandRegistry()

	cmd, err := r.register("Hug", noop)
	require.NoError(t, err)
	assert.Equal(t, "hug", cmd.Label())

	_, err = r.register("HUG", noop)
	assert.ErrorIs(t, err, ErrDuplicateCommand)
	assert.True(t, r.contains("hUg"))
}

func TestRegistryValidation(t *testing.T) {
	r := newCommandRegistry()
	_, err := r.register("  ", noop)
	assert.Error(t, err)
	_, err = r.register("x", nil)
	assert.Error(t, err)
}

func TestRegistryUnregister(t *testing.T) {
	r := newCommandRegistry()
	_, _ = r.register("a", noop)

	require.NoError(t, r.unregister("A"))
	assert.False(t, r.contains("a"))
	assert.ErrorIs(t, r.unregister("a"), ErrUnknownCommand)
}

func TestRegistryUnregisterAllAndLabels(t *testing.T) {
	r := newCommandRegistry()
	for _, l := range []string{"stop", "help", "restart"} {
		_, _ = r.register(l, noop)
	}
	assert.Equal(t, []string{"help", "restart", "stop"}, r.labels())

	r.unregisterAll()
	assert.Empty(t, r.labels())
	assert.Nil(t, r.get("help"))
}

func TestCommandMutableFields(t *testing.T) {
	r := newCommandRegistry()
	cmd, _ := r.register("hug", noop)
	cmd.SetUsage("!hug <user>").SetDescription("Hugs someone.")

	got := r.get("hug")
	assert.Equal(t, "!hug <user>", got.Usage())
	assert.Equal(t, "Hugs someone.", got.Description())
}

func TestClientNotifiesCommandChanges(t *testing.T) {
	c := New(Config{Username: "bot"}, nil)
	var registered, unregistered []string
	require.NoError(t, c.RegisterListener(&ListenerFuncs{
		CommandRegistered:   func(_ ChatClient, label string, _ *Command) { registered = append(registered, label) },
		CommandUnregistered: func(_ ChatClient, label string) { unregistered = append(unregistered, label) },
	}))

	_, err := c.RegisterCommand("Hug", noop)
	require.NoError(t, err)
	_, err = c.RegisterCommand("hug", noop)
	require.ErrorIs(t, err, ErrDuplicateCommand)
	require.NoError(t, c.UnregisterCommand("HUG"))
	require.ErrorIs(t, c.UnregisterCommand("hug"), ErrUnknownCommand)

	assert.Equal(t, []string{"hug"}, registered)
	assert.Equal(t, []string{"hug"}, unregistered)

	_, _ = c.RegisterCommand("a", noop)
	c.UnregisterAllCommands()
	assert.False(t, c.IsCommandRegistered("a"))
	// полная очистка не уведомляет по каждой команде
	assert.Equal(t, []string{"hug"}, unregistered)
}
