package chatclient

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Command — зарегистрированная команда. Usage и Description можно менять
// после регистрации через полученный указатель.
type Command struct {
	label    string
	executor CommandExecutor

	mu          sync.RWMutex
	usage       string
	description string
}

func (c *Command) Label() string             { return c.label }
func (c *Command) Executor() CommandExecutor { return c.executor }

func (c *Command) Usage() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.usage
}

func (c *Command) SetUsage(usage string) *Command {
	c.mu.Lock()
	c.usage = usage
	c.mu.Unlock()
	return c
}

func (c *Command) Description() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.description
}

func (c *Command) SetDescription(description string) *Command {
	c.mu.Lock()
	c.description = description
	c.mu.Unlock()
	return c
}

// NormalizeLabel приводит метку к ключу реестра.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

type commandRegistry struct {
	mu       sync.RWMutex
	commands map[string]*Command
}

func newCommandRegistry() *commandRegistry {
	return &commandRegistry{commands: make(map[string]*Command)}
}

func (r *commandRegistry) register(label string, executor CommandExecutor) (*Command, error) {
	key := NormalizeLabel(label)
	if key == "" {
		return nil, fmt.Errorf("register command: empty label")
	}
	if executor == nil {
		return nil, fmt.Errorf("register command %q: nil executor", key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.commands[key]; ok {
		return nil, fmt.Errorf("register %q: %w", key, ErrDuplicateCommand)
	}
	cmd := &Command{label: key, executor: executor}
	r.commands[key] = cmd
	return cmd, nil
}

func (r *commandRegistry) unregister(label string) error {
	key := NormalizeLabel(label)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.commands[key]; !ok {
		return fmt.Errorf("unregister %q: %w", key, ErrUnknownCommand)
	}
	delete(r.commands, key)
	return nil
}

func (r *commandRegistry) unregisterAll() {
	r.mu.Lock()
	clear(r.commands)
	r.mu.Unlock()
}

func (r *commandRegistry) get(label string) *Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands[NormalizeLabel(label)]
}

func (r *commandRegistry) contains(label string) bool {
	return r.get(label) != nil
}

// labels — снимок меток в порядке реестра (по алфавиту).
func (r *commandRegistry) labels() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.commands))
	for k := range r.commands {
		out = append(out, k)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}
