package usercmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mods map[string]bool

func (m mods) IsModerator(name string) bool { return m[name] }

func setupModeration(t *testing.T) (*fakeClient, *Manager) {
	t.Helper()
	m, _ := newManager(t)
	c := newFakeClient()
	NewModeration(m, mods{"alice": true}, nil).Register(c)
	m.RegisterAll(c)
	return c, m
}

func TestModerationLifecycle(t *testing.T) {
	c, m := setupModeration(t)

	c.run("alice", "!cmdadd hug $0 hugs $1")
	c.run("alice", "!cmdadd hug again")
	c.run("bob", "!hug alice")
	c.run("alice", "!cmdusage hug !hug <user>")
	c.run("alice", "!cmddesc hug Hugs someone.")
	c.run("alice", "!cmdrem hug")
	c.run("alice", "!cmdrem hug")
	c.run("alice", "!cmdusage hug x")

	assert.Equal(t, []string{
		"Command created, @alice",
		"Command already exists, @alice",
		"bob hugs alice",
		"Command usage updated, @alice",
		"Command description updated, @alice",
		"Command removed, @alice",
		"Command doesn't exist, @alice",
		"Command doesn't exist, @alice",
	}, c.sent)
	assert.False(t, m.Contains("hug"))
}

func TestModerationDefaults(t *testing.T) {
	c, m := setupModeration(t)
	c.run("alice", "!cmdadd wave o/")

	info, ok := m.Get("wave")
	require.True(t, ok)
	assert.Equal(t, "!wave", info.Usage)
	assert.Equal(t, "Nothing here!", info.Description)
	assert.Equal(t, "!wave", c.Command("wave").Usage())
}

func TestModerationIgnoresNonModerators(t *testing.T) {
	c, m := setupModeration(t)

	assert.True(t, c.run("bob", "!cmdadd hug hi"))
	assert.Empty(t, c.sent)
	assert.False(t, m.Contains("hug"))
}

func TestModerationBadArgsGetUsage(t *testing.T) {
	c, _ := setupModeration(t)

	assert.False(t, c.run("alice", "!cmdadd hug"))
	assert.Equal(t, []string{"Usage: !cmdadd <name> <response>"}, c.sent)
}

func TestModerationCannotShadowExistingCommand(t *testing.T) {
	c, m := setupModeration(t)
	c.run("alice", "!cmdadd cmdrem gotcha")
	assert.Equal(t, []string{"Command already exists, @alice"}, c.sent)
	assert.False(t, m.Contains("cmdrem"))
}
