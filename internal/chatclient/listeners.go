package chatclient

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
)

// Listener получает события клиента. Слушатель сравнивается по
// идентичности, поэтому регистрируйте указатели: значения несравнимых типов
// (структуры с map, slice или func) отклоняются с ErrUncomparableListener.
type Listener interface {
	OnConnected(c ChatClient)
	OnDisconnected(c ChatClient)
	OnMessage(c ChatClient, sender, text string)
	OnCommandRegistered(c ChatClient, label string, cmd *Command)
	OnCommandUnregistered(c ChatClient, label string)
}

// ListenerFuncs — слушатель из набора необязательных функций
// (по аналогии с полями On* у клиента).
type ListenerFuncs struct {
	Connected           func(c ChatClient)
	Disconnected        func(c ChatClient)
	Message             func(c ChatClient, sender, text string)
	CommandRegistered   func(c ChatClient, label string, cmd *Command)
	CommandUnregistered func(c ChatClient, label string)
}

func (l *ListenerFuncs) OnConnected(c ChatClient) {
	if l.Connected != nil {
		l.Connected(c)
	}
}

func (l *ListenerFuncs) OnDisconnected(c ChatClient) {
	if l.Disconnected != nil {
		l.Disconnected(c)
	}
}

func (l *ListenerFuncs) OnMessage(c ChatClient, sender, text string) {
	if l.Message != nil {
		l.Message(c, sender, text)
	}
}

func (l *ListenerFuncs) OnCommandRegistered(c ChatClient, label string, cmd *Command) {
	if l.CommandRegistered != nil {
		l.CommandRegistered(c, label, cmd)
	}
}

func (l *ListenerFuncs) OnCommandUnregistered(c ChatClient, label string) {
	if l.CommandUnregistered != nil {
		l.CommandUnregistered(c, label)
	}
}

// listenerEntry — зарегистрированный слушатель. removed выставляется при
// снятии, чтобы уже сделанный снимок не доставил ему новых событий.
type listenerEntry struct {
	l       Listener
	removed atomic.Bool
}

type listenerRegistry struct {
	mu      sync.Mutex
	entries []*listenerEntry
	log     *slog.Logger
}

func newListenerRegistry(log *slog.Logger) *listenerRegistry {
	return &listenerRegistry{log: log}
}

// сравнивать можно только слушателей сравнимого типа, иначе == паникует
func checkListener(l Listener) error {
	if l == nil {
		return errors.New("nil listener")
	}
	if !reflect.TypeOf(l).Comparable() {
		return fmt.Errorf("%w: %T", ErrUncomparableListener, l)
	}
	return nil
}

func (r *listenerRegistry) register(l Listener) error {
	if err := checkListener(l); err != nil {
		return fmt.Errorf("register listener: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(l) >= 0 {
		return ErrDuplicateListener
	}
	r.entries = append(r.entries, &listenerEntry{l: l})
	return nil
}

func (r *listenerRegistry) unregister(l Listener) error {
	if err := checkListener(l); err != nil {
		return fmt.Errorf("unregister listener: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(l)
	if i < 0 {
		return ErrUnknownListener
	}
	r.entries[i].removed.Store(true)
	r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
	return nil
}

func (r *listenerRegistry) unregisterAll() {
	r.mu.Lock()
	for _, e := range r.entries {
		e.removed.Store(true)
	}
	r.entries = nil
	r.mu.Unlock()
}

func (r *listenerRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// вызывать под mu
func (r *listenerRegistry) indexOf(l Listener) int {
	for i, e := range r.entries {
		if e.l == l {
			return i
		}
	}
	return -1
}

// notify раздаёт событие всем слушателям по порядку регистрации.
// Раздача идёт по снимку без блокировки, так что из колбэка можно слать
// сообщения и менять реестр. Снятый слушатель новых событий не получает.
// Паника одного слушателя не мешает остальным.
func (r *listenerRegistry) notify(event string, fn func(Listener)) {
	r.mu.Lock()
	snapshot := append([]*listenerEntry(nil), r.entries...)
	r.mu.Unlock()

	for _, e := range snapshot {
		if e.removed.Load() {
			continue
		}
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					r.log.Error("listener panicked", "event", event, "panic", rec)
				}
			}()
			fn(e.l)
		}()
	}
}
