// Package gridtest provides an in-memory grid.Grid for tests.
package gridtest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"muster/pkg/grid"
)

// Memory is a grid held in a slice of rows. It records every call so tests
// can assert how many remote round-trips a flow took.
type Memory struct {
	mu    sync.Mutex
	cells [][]string

	Reads   map[string]int
	Writes  []string
	Appends []string

	// Fail, when set, is consulted before every call; a non-nil error is
	// returned wrapped in grid.ErrRemoteUnavailable.
	Fail func(op, rng string) error
}

func NewMemory(rows ...[]string) *Memory {
	m := &Memory{Reads: make(map[string]int)}
	for _, r := range rows {
		m.cells = append(m.cells, append([]string(nil), r...))
	}
	return m
}

func (m *Memory) ReadRow(_ context.Context, rng string) ([]interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("read", rng); err != nil {
		return nil, err
	}
	m.Reads[rng]++
	c1, r1, c2, _, err := parseRange(rng)
	if err != nil {
		return nil, err
	}
	var out []interface{}
	for c := c1; c <= c2; c++ {
		out = append(out, m.get(r1, c))
	}
	return trim(out), nil
}

func (m *Memory) ReadColumn(_ context.Context, rng string) ([]interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("read", rng); err != nil {
		return nil, err
	}
	m.Reads[rng]++
	c1, r1, _, r2, err := parseRange(rng)
	if err != nil {
		return nil, err
	}
	var out []interface{}
	for r := r1; r <= r2 && r <= len(m.cells); r++ {
		out = append(out, m.get(r, c1))
	}
	return trim(out), nil
}

func (m *Memory) WriteCell(_ context.Context, addr string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("write", addr); err != nil {
		return err
	}
	c, r, _, _, err := parseRange(addr)
	if err != nil {
		return err
	}
	m.Writes = append(m.Writes, addr)
	m.set(r, c, fmt.Sprint(value))
	return nil
}

func (m *Memory) AppendRow(_ context.Context, value interface{}) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("append", "A:A"); err != nil {
		return 0, err
	}
	row := 1
	for r := len(m.cells); r >= 1; r-- {
		if m.get(r, 0) != "" {
			row = r + 1
			break
		}
	}
	s := fmt.Sprint(value)
	m.Appends = append(m.Appends, s)
	m.set(row, 0, s)
	return row, nil
}

// Rows returns the grid contents with trailing empty cells and rows removed.
func (m *Memory) Rows() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out [][]string
	for _, r := range m.cells {
		end := len(r)
		for end > 0 && r[end-1] == "" {
			end--
		}
		out = append(out, append([]string{}, r[:end]...))
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out
}

// Cell returns the value at an A1-style address.
func (m *Memory) Cell(addr string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, r, _, _, err := parseRange(addr)
	if err != nil {
		return ""
	}
	return m.get(r, c)
}

// ReadCount reports how often rng was read.
func (m *Memory) ReadCount(rng string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Reads[rng]
}

func (m *Memory) fail(op, rng string) error {
	if m.Fail == nil {
		return nil
	}
	if err := m.Fail(op, rng); err != nil {
		return fmt.Errorf("%s %s: %v: %w", op, rng, err, grid.ErrRemoteUnavailable)
	}
	return nil
}

// get and set take a 1-based row and a 0-based column.
func (m *Memory) get(row, col int) string {
	if row < 1 || row > len(m.cells) || col >= len(m.cells[row-1]) {
		return ""
	}
	return m.cells[row-1][col]
}

func (m *Memory) set(row, col int, v string) {
	for len(m.cells) < row {
		m.cells = append(m.cells, nil)
	}
	r := m.cells[row-1]
	for len(r) <= col {
		r = append(r, "")
	}
	r[col] = v
	m.cells[row-1] = r
}

func trim(vals []interface{}) []interface{} {
	end := len(vals)
	for end > 0 && vals[end-1] == "" {
		end--
	}
	return vals[:end]
}

// parseRange accepts "B2" or "A2:A1000" and returns 0-based columns and
// 1-based rows.
func parseRange(rng string) (c1, r1, c2, r2 int, err error) {
	from, to, found := strings.Cut(rng, ":")
	if c1, r1, err = parseCell(from); err != nil {
		return
	}
	if !found {
		return c1, r1, c1, r1, nil
	}
	c2, r2, err = parseCell(to)
	return
}

func parseCell(s string) (int, int, error) {
	if len(s) < 2 {
		return 0, 0, fmt.Errorf("bad cell %q", s)
	}
	col, err := grid.LetterToColumn(s[:1])
	if err != nil {
		return 0, 0, err
	}
	row, err := strconv.Atoi(s[1:])
	if err != nil {
		return 0, 0, fmt.Errorf("bad cell %q: %v", s, err)
	}
	return col, row, nil
}
