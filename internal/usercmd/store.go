package usercmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/EgorLis/twitchbot/internal/filewatch"
)

const DefaultFile = "commands.json"

// Info — пользовательская команда в том виде, как она лежит в файле.
type Info struct {
	Name        string `json:"name"`
	Usage       string `json:"usage"`
	Description string `json:"description"`
	Response    string `json:"response"`
}

// Store — JSON-файл со списком команд.
type Store struct {
	mu      sync.Mutex
	path    string
	watcher *filewatch.Watcher
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load читает список; отсутствующий файл создаётся пустым.
func (s *Store) Load() ([]Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, s.write([]byte("[]"))
	}
	if err != nil {
		return nil, fmt.Errorf("read commands: %w", err)
	}
	return decode(b)
}

func decode(b []byte) ([]Info, error) {
	var list []Info
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("parse commands: %w", err)
	}
	return list, nil
}

func encode(list []Info) ([]byte, error) {
	sorted := append([]Info(nil), list...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	if sorted == nil {
		sorted = []Info{}
	}
	return json.MarshalIndent(sorted, "", "  ")
}

func (s *Store) Save(list []Info) error {
	b, err := encode(list)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(b)
}

// вызывать под mu
func (s *Store) write(b []byte) error {
	if dir := filepath.Dir(s.path); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	if s.watcher != nil {
		s.watcher.Remember(b)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("save commands: %w", err)
	}
	return nil
}

// Watch вызывает onChange со списком после ручной правки файла.
func (s *Store) Watch(ctx context.Context, onChange func([]Info, error), opts ...filewatch.Option) error {
	w, err := filewatch.Watch(ctx, s.path, func(b []byte) {
		onChange(decode(b))
	}, opts...)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()
	return nil
}
