package bot

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

type AnnouncementConf struct {
	Name    string `json:"name"`
	Every   int    `json:"every_sec"`
	Message string `json:"message"`
}

type BotConfig struct {
	Announcements map[string]AnnouncementConf `json:"announcements"`
}

type configStore struct {
	mu   sync.Mutex
	path string
	data BotConfig
}

func (bot *TwitchBot) UseConfig(path string) error {
	bot.cfg = newConfigStore(path)
	if err := bot.cfg.Load(); err != nil {
		return err
	}
	// объявления запустятся в OnStart
	bot.log.Info("bot config loaded", "path", path, "announcements", len(bot.cfg.snapshot()))
	return nil
}

func (cs *configStore) Load() error {
	cs.mu.Lock()
	b, err := os.ReadFile(cs.path)
	if err != nil {
		cs.mu.Unlock()
		if errors.Is(err, os.ErrNotExist) {
			return cs.Save() // создаём пустой
		}
		return err
	}
	defer cs.mu.Unlock()
	if err := json.Unmarshal(b, &cs.data); err != nil {
		return err
	}
	if cs.data.Announcements == nil {
		cs.data.Announcements = map[string]AnnouncementConf{}
	}
	return nil
}

func (cs *configStore) Save() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.path == "" {
		return nil // без UseConfig живём в памяти
	}
	b, err := json.MarshalIndent(&cs.data, "", "  ")
	if err != nil {
		return err
	}
	_ = os.MkdirAll(filepath.Dir(cs.path), 0755)
	return os.WriteFile(cs.path, b, 0644)
}

func (cs *configStore) put(a AnnouncementConf) {
	cs.mu.Lock()
	cs.data.Announcements[a.Name] = a
	cs.mu.Unlock()
}

func (cs *configStore) remove(name string) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if _, ok := cs.data.Announcements[name]; !ok {
		return false
	}
	delete(cs.data.Announcements, name)
	return true
}

func (cs *configStore) snapshot() []AnnouncementConf {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	out := make([]AnnouncementConf, 0, len(cs.data.Announcements))
	for _, a := range cs.data.Announcements {
		out = append(out, a)
	}
	return out
}

func newConfigStore(path string) *configStore {
	return &configStore{
		path: path,
		data: BotConfig{Announcements: map[string]AnnouncementConf{}},
	}
}
