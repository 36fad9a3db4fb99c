// Package filewatch следит за одним файлом и сообщает о новом содержимом.
// Следим за каталогом, а не за файлом: редакторы и атомарная запись
// заменяют файл через rename, и наблюдение за самим файлом теряется.
package filewatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"

	"github.com/EgorLis/twitchbot/internal/logging"
)

const DefaultDebounce = 200 * time.Millisecond

type Watcher struct {
	path     string
	name     string
	debounce time.Duration
	log      *slog.Logger

	last atomic.Uint64 // xxhash последнего известного содержимого
	done chan struct{}
}

type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(w *Watcher) {
		if log != nil {
			w.log = log
		}
	}
}

// Watch начинает наблюдение и возвращается сразу. onChange получает новое
// содержимое файла (из горутины наблюдателя), но только если оно отличается
// от последнего увиденного или записанного через Remember.
func Watch(ctx context.Context, path string, onChange func(data []byte), opts ...Option) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		name:     filepath.Base(path),
		debounce: DefaultDebounce,
		log:      logging.Nop(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	if data, err := os.ReadFile(path); err == nil {
		w.Remember(data)
	}

	go w.loop(ctx, fw, onChange)
	return w, nil
}

// Remember отмечает содержимое как уже известное; вызывать перед
// собственной записью файла, чтобы она не вернулась как внешняя правка.
func (w *Watcher) Remember(data []byte) {
	w.last.Store(xxhash.Sum64(data))
}

// Done закрывается после остановки наблюдения.
func (w *Watcher) Done() <-chan struct{} { return w.done }

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, onChange func([]byte)) {
	defer close(w.done)
	defer fw.Close()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != w.name {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watcher error", "path", w.path, "err", err)
		case <-timer.C:
			w.check(onChange)
		}
	}
}

func (w *Watcher) check(onChange func([]byte)) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.log.Debug("watched file not readable", "path", w.path, "err", err)
		return
	}
	sum := xxhash.Sum64(data)
	if w.last.Swap(sum) == sum {
		return
	}
	w.log.Info("file changed on disk", "path", w.path)
	onChange(data)
}
