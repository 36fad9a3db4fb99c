package usercmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/EgorLis/twitchbot/internal/chatclient"
	"github.com/EgorLis/twitchbot/internal/filewatch"
	"github.com/EgorLis/twitchbot/internal/logging"
)

const (
	DefaultDescription = "Nothing here!"
)

// Registry — часть клиента, нужная менеджеру.
type Registry interface {
	Command(label string) *chatclient.Command
	RegisterCommand(label string, executor chatclient.CommandExecutor) (*chatclient.Command, error)
	UnregisterCommand(label string) error
	IsCommandRegistered(label string) bool
}

// Manager держит пользовательские команды и синхронизирует их с реестром
// клиента. Снимает он только те метки, которые сам зарегистрировал.
type Manager struct {
	mu       sync.Mutex
	store    *Store
	commands map[string]Info
	owned    map[string]struct{}
	registry Registry
	log      *slog.Logger
}

func NewManager(store *Store, log *slog.Logger) *Manager {
	if log == nil {
		log = logging.Nop()
	}
	return &Manager{
		store:    store,
		commands: map[string]Info{},
		owned:    map[string]struct{}{},
		log:      log,
	}
}

// Name приводит имя команды к метке реестра ("!Hug" -> "hug").
func Name(s string) string {
	return chatclient.NormalizeLabel(strings.TrimPrefix(strings.TrimSpace(s), "!"))
}

// Load заменяет команды содержимым файла.
func (m *Manager) Load() error {
	list, err := m.store.Load()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaceLocked(list)
	return nil
}

// Reload перечитывает файл и заново регистрирует свои команды.
func (m *Manager) Reload() error {
	list, err := m.store.Load()
	if err != nil {
		return err
	}
	m.apply(list)
	return nil
}

func (m *Manager) apply(list []Info) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.registry
	m.unregisterOwnedLocked()
	m.replaceLocked(list)
	if r != nil {
		m.registerAllLocked(r)
	}
}

func (m *Manager) replaceLocked(list []Info) {
	m.commands = make(map[string]Info, len(list))
	for _, info := range list {
		info.Name = Name(info.Name)
		if info.Name == "" {
			continue
		}
		m.commands[info.Name] = info
	}
}

// RegisterAll привязывает менеджер к реестру и регистрирует все команды.
// Занятые чужими командами метки пропускаются с предупреждением.
func (m *Manager) RegisterAll(r Registry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry = r
	// реестр мог быть очищен клиентом (рестарт), старые отметки неверны
	m.owned = map[string]struct{}{}
	m.registerAllLocked(r)
}

func (m *Manager) registerAllLocked(r Registry) {
	for _, info := range m.commands {
		m.registerLocked(r, info)
	}
}

func (m *Manager) registerLocked(r Registry, info Info) {
	cmd, err := r.RegisterCommand(info.Name, responder(ParseFormat(info.Response)))
	if err != nil {
		if errors.Is(err, chatclient.ErrDuplicateCommand) {
			m.log.Warn("user command was already registered by something else", "name", info.Name)
		} else {
			m.log.Error("register user command", "name", info.Name, "err", err)
		}
		return
	}
	cmd.SetUsage(info.Usage).SetDescription(info.Description)
	m.owned[info.Name] = struct{}{}
}

func (m *Manager) unregisterOwnedLocked() {
	if m.registry != nil {
		for name := range m.owned {
			_ = m.registry.UnregisterCommand(name)
		}
	}
	m.owned = map[string]struct{}{}
}

// Detach отвязывает менеджер от реестра (клиент остановлен).
func (m *Manager) Detach() {
	m.mu.Lock()
	m.registry = nil
	m.owned = map[string]struct{}{}
	m.mu.Unlock()
}

// Create добавляет или заменяет команду и сохраняет файл. Пустые usage и
// description заменяются значениями по умолчанию.
func (m *Manager) Create(info Info) error {
	info.Name = Name(info.Name)
	if info.Name == "" {
		return fmt.Errorf("create user command: empty name")
	}
	if info.Usage == "" {
		info.Usage = "!" + info.Name
	}
	if info.Description == "" {
		info.Description = DefaultDescription
	}

	m.mu.Lock()
	if _, ok := m.commands[info.Name]; ok {
		m.log.Info("updating user command", "name", info.Name)
		m.unregisterLocked(info.Name)
	} else {
		m.log.Info("creating user command", "name", info.Name)
	}
	m.commands[info.Name] = info
	if m.registry != nil {
		m.registerLocked(m.registry, info)
	}
	list := m.listLocked()
	m.mu.Unlock()

	return m.store.Save(list)
}

func (m *Manager) unregisterLocked(name string) {
	if _, ok := m.owned[name]; !ok || m.registry == nil {
		return
	}
	_ = m.registry.UnregisterCommand(name)
	delete(m.owned, name)
}

// Remove удаляет команду. false — такой пользовательской команды нет.
func (m *Manager) Remove(name string) (bool, error) {
	name = Name(name)
	m.mu.Lock()
	if _, ok := m.commands[name]; !ok {
		m.mu.Unlock()
		return false, nil
	}
	m.unregisterLocked(name)
	delete(m.commands, name)
	list := m.listLocked()
	m.mu.Unlock()

	m.log.Info("user command removed", "name", name)
	return true, m.store.Save(list)
}

// Update меняет поля существующей команды и живой команды в реестре.
func (m *Manager) Update(name string, fn func(*Info)) (bool, error) {
	name = Name(name)
	m.mu.Lock()
	info, ok := m.commands[name]
	if !ok {
		m.mu.Unlock()
		return false, nil
	}
	fn(&info)
	info.Name = name
	m.commands[name] = info

	if _, own := m.owned[name]; own && m.registry != nil {
		if cmd := m.registry.Command(name); cmd != nil {
			cmd.SetUsage(info.Usage).SetDescription(info.Description)
		}
	}
	list := m.listLocked()
	m.mu.Unlock()

	return true, m.store.Save(list)
}

func (m *Manager) Get(name string) (Info, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.commands[Name(name)]
	return info, ok
}

func (m *Manager) Contains(name string) bool {
	_, ok := m.Get(name)
	return ok
}

// List — команды по алфавиту.
func (m *Manager) List() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listLocked()
}

func (m *Manager) listLocked() []Info {
	out := make([]Info, 0, len(m.commands))
	for _, info := range m.commands {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Watch применяет ручные правки файла команд, пока жив ctx.
func (m *Manager) Watch(ctx context.Context) error {
	return m.store.Watch(ctx, func(list []Info, err error) {
		if err != nil {
			m.log.Warn("commands file not reloaded", "err", err)
			return
		}
		m.apply(list)
		m.log.Info("user commands reloaded", "count", len(list))
	}, filewatch.WithLogger(m.log))
}

// ========================= исполнитель =========================

// responder отвечает в чат по шаблону.
func responder(f Formatter) chatclient.CommandFunc {
	return func(c chatclient.ChatClient, sender string, _ *chatclient.Command, _ string, args []string) bool {
		msg, ok := f.Format(sender, args)
		if !ok {
			return false
		}
		c.SendMessage(msg)
		return true
	}
}
