// Package settings persists the choices made on the kiosk's settings screen
// so they survive a restart.
package settings

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

type Settings struct {
	GridID string
}

// Store is a TOML file holding Settings.
type Store struct {
	mu       sync.Mutex
	filename string
	current  Settings
}

// Open loads filename. A missing file yields empty Settings; the file is
// only written by SetGridID.
func Open(filename string) (*Store, error) {
	s := &Store{filename: filename}
	if err := s.load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return s, nil
}

func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetGridID records id and writes the file.
func (s *Store) SetGridID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.current
	s.current.GridID = id
	if err := s.save(); err != nil {
		s.current = prev
		return err
	}
	return nil
}

func (s *Store) save() error {
	b, err := toml.Marshal(s.current)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(s.filename, b, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.filename)
	if err != nil {
		return err
	}
	if err := toml.Unmarshal(b, &s.current); err != nil {
		return fmt.Errorf("decode settings %s: %w", s.filename, err)
	}
	return nil
}
