package api

import (
	"context"
	"errors"
	"sync"

	"muster/pkg/attendance"
)

type mockRecorder struct {
	mu      sync.Mutex
	gridID  string
	marked  []string
	entry   attendance.Entry
	markErr error
	setErr  error
}

func (m *mockRecorder) Mark(_ context.Context, identity string) (attendance.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marked = append(m.marked, identity)
	if m.markErr != nil {
		return attendance.Entry{}, m.markErr
	}
	e := m.entry
	e.Identity = attendance.Normalize(identity)
	return e, nil
}

func (m *mockRecorder) SetGridID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.gridID = id
	return nil
}

func (m *mockRecorder) GridID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gridID
}

type mockSettings struct {
	saved []string
	fail  bool
}

func (m *mockSettings) SetGridID(id string) error {
	if m.fail {
		return errors.New("disk full")
	}
	m.saved = append(m.saved, id)
	return nil
}
