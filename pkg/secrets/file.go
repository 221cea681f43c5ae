package secrets

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ErrEmptySecret is returned when a secret file holds only whitespace.
var ErrEmptySecret = errors.New("secret file is empty")

// FileSecret holds the contents of a single secret file, such as a mounted
// Kubernetes secret. With watching enabled it reloads the value when the
// file is rewritten or replaced; a failed reload keeps the last good value.
type FileSecret struct {
	path   string
	logger *slog.Logger

	mu       sync.RWMutex
	value    string
	onChange []func()

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	done    chan struct{}
}

// NewFileSecret reads path and, if watch is set, starts watching its
// directory. The file must be a regular file with mode 0600 or 0400.
func NewFileSecret(path string, watch bool, logger *slog.Logger) (*FileSecret, error) {
	if logger == nil {
		logger = slog.Default().With("component", "secrets")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve secret path: %w", err)
	}

	s := &FileSecret{
		path:   abs,
		logger: logger,
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}

	if !watch {
		return s, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Watch the directory: mounted secrets are swapped by renaming a
	// symlink, which never produces an event on the file itself.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	s.watcher = watcher
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	go s.watchLoop()

	logger.Info("watching secret file for changes", "path", abs)
	return s, nil
}

// Value returns the current secret.
func (s *FileSecret) Value() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// OnChange registers fn to run after a reload replaces the value with a
// different one. Callbacks run on the reloading goroutine.
func (s *FileSecret) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Reload re-reads the file. On error the previous value is kept.
func (s *FileSecret) Reload() error {
	value, err := readSecretFile(s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	changed := s.value != "" && s.value != value
	s.value = value
	callbacks := s.onChange
	s.mu.Unlock()

	if changed {
		s.logger.Info("secret reloaded", "path", s.path)
		for _, fn := range callbacks {
			fn()
		}
	}
	return nil
}

// Close stops watching. It is safe to call more than once.
func (s *FileSecret) Close() error {
	if s.watcher == nil {
		return nil
	}

	select {
	case <-s.stopCh:
		return nil
	default:
		close(s.stopCh)
	}
	err := s.watcher.Close()
	<-s.done
	return err
}

func (s *FileSecret) watchLoop() {
	defer close(s.done)

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			s.logger.Debug("secret directory changed",
				"file", filepath.Base(event.Name),
				"op", event.Op.String(),
			)
			if err := s.Reload(); err != nil {
				s.logger.Warn("failed to reload secret, keeping previous value",
					"path", s.path,
					"error", err,
				)
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error("file watcher error", "error", err)

		case <-s.stopCh:
			return
		}
	}
}

// readSecretFile reads and trims a secret, rejecting anything but a regular
// file readable only by its owner.
func readSecretFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("secret file not found: %s", path)
		}
		return "", fmt.Errorf("failed to stat secret file: %w", err)
	}

	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("secret path is not a regular file: %s", path)
	}

	mode := info.Mode().Perm()
	if mode != 0o600 && mode != 0o400 {
		return "", fmt.Errorf("insecure permissions on %s: %o (expected 0600 or 0400)", path, mode)
	}

	// #nosec G304 - path comes from trusted configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file: %w", err)
	}

	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", fmt.Errorf("%s: %w", path, ErrEmptySecret)
	}
	return value, nil
}
