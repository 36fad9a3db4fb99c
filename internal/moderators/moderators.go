// Package moderators — список ников, которым разрешены привилегированные
// команды. Хранится в JSON-массиве, всегда в нижнем регистре и по алфавиту.
package moderators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/EgorLis/twitchbot/internal/filewatch"
	"github.com/EgorLis/twitchbot/internal/logging"
)

const DefaultFile = "moderators.json"

type Store struct {
	mu      sync.RWMutex
	path    string
	names   map[string]struct{}
	watcher *filewatch.Watcher
	log     *slog.Logger
}

// Open читает список; если файла нет, создаёт его с "[]".
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = logging.Nop()
	}
	s := &Store{path: path, names: map[string]struct{}{}, log: log}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), "@")))
}

func (s *Store) Load() error {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.mu.Lock()
		s.names = map[string]struct{}{}
		s.mu.Unlock()
		return s.Save()
	}
	if err != nil {
		return fmt.Errorf("read moderators: %w", err)
	}
	return s.replace(b)
}

func (s *Store) replace(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}
	names := make(map[string]struct{}, len(list))
	for _, n := range list {
		if n = normalize(n); n != "" {
			names[n] = struct{}{}
		}
	}
	s.mu.Lock()
	s.names = names
	s.mu.Unlock()
	return nil
}

func (s *Store) Save() error {
	b, err := json.MarshalIndent(s.List(), "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}

	s.mu.RLock()
	w := s.watcher
	s.mu.RUnlock()
	if w != nil {
		w.Remember(b)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("save moderators: %w", err)
	}
	return nil
}

// Add возвращает false, если ник уже был в списке.
func (s *Store) Add(name string) (bool, error) {
	n := normalize(name)
	if n == "" {
		return false, errors.New("empty moderator name")
	}
	s.mu.Lock()
	_, had := s.names[n]
	s.names[n] = struct{}{}
	s.mu.Unlock()
	if had {
		return false, nil
	}
	s.log.Info("moderator added", "name", n)
	return true, s.Save()
}

// Remove возвращает false, если ника не было.
func (s *Store) Remove(name string) (bool, error) {
	n := normalize(name)
	s.mu.Lock()
	_, had := s.names[n]
	delete(s.names, n)
	s.mu.Unlock()
	if !had {
		return false, nil
	}
	s.log.Info("moderator removed", "name", n)
	return true, s.Save()
}

func (s *Store) IsModerator(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.names[normalize(name)]
	return ok
}

func (s *Store) List() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Watch перечитывает список при ручной правке файла, пока жив ctx.
func (s *Store) Watch(ctx context.Context) error {
	w, err := filewatch.Watch(ctx, s.path, func(b []byte) {
		if err := s.replace(b); err != nil {
			s.log.Warn("moderators file not reloaded", "err", err)
			return
		}
		s.log.Info("moderators reloaded", "count", len(s.List()))
	}, filewatch.WithLogger(s.log))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()
	return nil
}
