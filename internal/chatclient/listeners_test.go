package chatclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/twitchbot/internal/logging"
)

func TestListenerRegistryDuplicatesAndUnknown(t *testing.T) {
	r := newListenerRegistry(logging.Nop())
	l := &ListenerFuncs{}

	require.NoError(t, r.register(l))
	assert.ErrorIs(t, r.register(l), ErrDuplicateListener)
	assert.Error(t, r.register(nil))

	require.NoError(t, r.unregister(l))
	assert.ErrorIs(t, r.unregister(l), ErrUnknownListener)
}

func TestListenerPanicDoesNotStopFanOut(t *testing.T) {
	r := newListenerRegistry(logging.Nop())
	var order []string
	first := &ListenerFuncs{Connected: func(ChatClient) { order = append(order, "first") }}
	bad := &ListenerFuncs{Connected: func(ChatClient) { panic("listener bug") }}
	last := &ListenerFuncs{Connected: func(ChatClient) { order = append(order, "last") }}
	for _, l := range []Listener{first, bad, last} {
		require.NoError(t, r.register(l))
	}

	assert.NotPanics(t, func() {
		r.notify("connected", func(l Listener) { l.OnConnected(nil) })
	})
	assert.Equal(t, []string{"first", "last"}, order)
}

func TestListenerUnregisterAll(t *testing.T) {
	r := newListenerRegistry(logging.Nop())
	_ = r.register(&ListenerFuncs{})
	_ = r.register(&ListenerFuncs{})
	assert.Equal(t, 2, r.len())

	r.unregisterAll()
	assert.Zero(t, r.len())
	called := false
	r.notify("x", func(Listener) { called = true })
	assert.False(t, called)
}

// valueListener — слушатель-значение несравнимого типа.
type valueListener struct {
	seen map[string]int
}

func (v valueListener) OnConnected(ChatClient)                           {}
func (v valueListener) OnDisconnected(ChatClient)                        {}
func (v valueListener) OnMessage(ChatClient, string, string)             {}
func (v valueListener) OnCommandRegistered(ChatClient, string, *Command) {}
func (v valueListener) OnCommandUnregistered(ChatClient, string)         {}

func TestListenerRegistryRejectsUncomparable(t *testing.T) {
	r := newListenerRegistry(logging.Nop())
	require.NoError(t, r.register(&ListenerFuncs{}))

	assert.NotPanics(t, func() {
		assert.ErrorIs(t, r.register(valueListener{seen: map[string]int{}}), ErrUncomparableListener)
		assert.ErrorIs(t, r.unregister(valueListener{seen: map[string]int{}}), ErrUncomparableListener)
	})
	assert.Equal(t, 1, r.len())
}

func TestUnregisteredListenerGetsNoFurtherEvents(t *testing.T) {
	r := newListenerRegistry(logging.Nop())
	var calls []string
	second := &ListenerFuncs{Connected: func(ChatClient) { calls = append(calls, "second") }}
	first := &ListenerFuncs{Connected: func(ChatClient) {
		calls = append(calls, "first")
		// снимаем второго посреди раздачи
		require.NoError(t, r.unregister(second))
	}}
	require.NoError(t, r.register(first))
	require.NoError(t, r.register(second))

	r.notify("connected", func(l Listener) { l.OnConnected(nil) })
	assert.Equal(t, []string{"first"}, calls)
}

func TestListenerCallbackMayChangeRegistry(t *testing.T) {
	r := newListenerRegistry(logging.Nop())
	late := &ListenerFuncs{}
	var nested int
	self := &ListenerFuncs{}
	self.Connected = func(ChatClient) {
		require.NoError(t, r.register(late))
		r.notify("nested", func(Listener) { nested++ })
	}
	require.NoError(t, r.register(self))

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.notify("connected", func(l Listener) { l.OnConnected(nil) })
	}()
	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("notify blocked on its own registry")
	}
	assert.Equal(t, 2, r.len())
	assert.Equal(t, 2, nested)
}
