package settings

import (
	"bytes"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

const (
	defaultSettingsName = "settings.json"
	defaultSettingsDir  = ".config/moview"
)

// GetDefaultPath returns the default settings file location, creating the
// containing directory when needed.
func GetDefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}

	dir := filepath.Join(homeDir, defaultSettingsDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(err, "failed to create settings directory")
	}

	return filepath.Join(dir, defaultSettingsName), nil
}

// Store is a JSON-file-backed settings store. Every snapshot handed out has
// passed through Sanitize. External edits to the file are picked up via
// fsnotify and forwarded to change listeners in registration order.
type Store struct {
	path string

	mu        sync.Mutex
	cache     AppSettings
	raw       []byte
	listeners []func(AppSettings)

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewStore loads the settings file at path, falling back to defaults when it
// does not exist, and starts watching the file for external changes.
func NewStore(path string) (*Store, error) {
	if path == "" {
		var err error
		path, err = GetDefaultPath()
		if err != nil {
			return nil, err
		}
	}

	s := &Store{
		path:  path,
		cache: Sanitize(Default()),
		done:  make(chan struct{}),
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("Settings watcher unavailable: %v", err)
		return s, nil
	}
	// Watch the directory so atomic rename-into-place writes are seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		log.Printf("Settings watcher failed to watch %s: %v", filepath.Dir(path), err)
		watcher.Close()
		return s, nil
	}
	s.watcher = watcher
	go s.watchLoop()

	return s, nil
}

// Get returns the current sanitized settings snapshot.
func (s *Store) Get() AppSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache
}

// Set sanitizes and persists a new snapshot, then notifies change listeners.
func (s *Store) Set(next AppSettings) error {
	sanitized := Sanitize(next)

	data, err := json.MarshalIndent(sanitized, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode settings")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write settings file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "failed to replace settings file")
	}

	s.mu.Lock()
	s.cache = sanitized
	s.raw = data
	listeners := append([]func(AppSettings){}, s.listeners...)
	s.mu.Unlock()

	for _, listener := range listeners {
		listener(sanitized)
	}
	return nil
}

// OnChange registers a listener invoked after every accepted settings change,
// in registration order.
func (s *Store) OnChange(listener func(AppSettings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// Close stops the file watcher.
func (s *Store) Close() error {
	close(s.done)
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "failed to read settings file")
	}

	// Unmarshal over the defaults so missing fields keep their default value.
	loaded := Default()
	if err := json.Unmarshal(data, &loaded); err != nil {
		log.Printf("Settings file %s is invalid, keeping previous values: %v", s.path, err)
		return nil
	}

	s.mu.Lock()
	s.cache = Sanitize(loaded)
	s.raw = data
	s.mu.Unlock()
	return nil
}

func (s *Store) watchLoop() {
	for {
		select {
		case <-s.done:
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			s.reloadFromDisk()

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Settings watcher error: %v", err)
		}
	}
}

func (s *Store) reloadFromDisk() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}

	s.mu.Lock()
	if bytes.Equal(data, s.raw) {
		// Our own write echoed back through the watcher.
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if err := s.load(); err != nil {
		log.Printf("Failed to reload settings: %v", err)
		return
	}

	s.mu.Lock()
	snapshot := s.cache
	listeners := append([]func(AppSettings){}, s.listeners...)
	s.mu.Unlock()

	log.Printf("Settings reloaded from %s", s.path)
	for _, listener := range listeners {
		listener(snapshot)
	}
}
