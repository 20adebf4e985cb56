package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

// DirSubstrate stores one file per key in a directory, the on-disk analogue of browser local storage.
//
// On the OS filesystem, changes made by other processes are picked up with fsnotify. Any other [afero.Fs]
// (for example the in-memory one used in tests) is polled.
type DirSubstrate struct {
	fs           afero.Fs
	dir          string
	pollInterval time.Duration
	logger       *log.Logger

	mu sync.Mutex // serializes writes from this process
}

// DirOption configures a [DirSubstrate].
type DirOption func(*DirSubstrate)

// WithPollInterval sets how often keys are polled when fsnotify is not available.
func WithPollInterval(d time.Duration) DirOption {
	return func(s *DirSubstrate) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithDirLogger sets the logger used for watcher errors.
func WithDirLogger(l *log.Logger) DirOption {
	return func(s *DirSubstrate) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewDirSubstrate creates dir on fs if needed and returns a substrate rooted there.
func NewDirSubstrate(fs afero.Fs, dir string, opts ...DirOption) (*DirSubstrate, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	s := &DirSubstrate{
		fs:           fs,
		dir:          dir,
		pollInterval: defaultPollInterval,
		logger:       log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *DirSubstrate) fileName(key string) string {
	return url.PathEscape(key) + ".json"
}

func (s *DirSubstrate) path(key string) string {
	return filepath.Join(s.dir, s.fileName(key))
}

func (s *DirSubstrate) Get(key string) ([]byte, bool, error) {
	data, err := afero.ReadFile(s.fs, s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, true, nil
}

// Set writes to a temporary file and renames it over the key so readers never observe a partial value.
func (s *DirSubstrate) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := afero.TempFile(s.fs, s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	if err := s.fs.Rename(tmpName, s.path(key)); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

func (s *DirSubstrate) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.fs.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Watch uses fsnotify on the OS filesystem and falls back to polling when that is unavailable.
//
// The baseline value is read before Watch returns, so any later write from another context is reported.
func (s *DirSubstrate) Watch(ctx context.Context, key string) (<-chan Change, error) {
	ch := make(chan Change, watchBuffer)

	if _, ok := s.fs.(*afero.OsFs); ok {
		w, err := fsnotify.NewWatcher()
		if err == nil {
			if err = w.Add(s.dir); err == nil {
				last, existed, err := s.Get(key)
				if err != nil {
					w.Close()
					return nil, err
				}
				go s.watchEvents(ctx, w, key, ch, last, existed)
				return ch, nil
			}
			w.Close()
		}
		s.logger.Warn("file watching unavailable, polling instead", "dir", s.dir, "error", err)
	}

	last, existed, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	go s.poll(ctx, key, ch, last, existed)
	return ch, nil
}

func (s *DirSubstrate) watchEvents(ctx context.Context, w *fsnotify.Watcher, key string, ch chan Change, last []byte, existed bool) {
	defer close(ch)
	defer w.Close()

	target := s.fileName(key)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}

			value, exists, err := s.Get(key)
			if err != nil {
				s.logger.Warn("failed to read changed key", "key", key, "error", err)
				continue
			}
			if exists == existed && bytes.Equal(value, last) {
				continue
			}
			last, existed = value, exists
			if !exists {
				value = nil
			}
			notify(ch, Change{Key: key, Value: value})
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.logger.Warn("file watcher error", "dir", s.dir, "error", err)
		}
	}
}

func (s *DirSubstrate) poll(ctx context.Context, key string, ch chan Change, last []byte, existed bool) {
	defer close(ch)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			value, exists, err := s.Get(key)
			if err != nil {
				s.logger.Warn("failed to poll key", "key", key, "error", err)
				continue
			}
			if exists == existed && bytes.Equal(value, last) {
				continue
			}
			last, existed = value, exists
			if !exists {
				value = nil
			}
			notify(ch, Change{Key: key, Value: value})
		}
	}
}

// Close is a no-op; watchers stop when their contexts are cancelled.
func (s *DirSubstrate) Close() error { return nil }
