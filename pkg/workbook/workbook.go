// Package workbook implements grid.Grid on a local .xlsx file, for kiosks
// that sign people in without network access.
package workbook

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"muster/pkg/grid"
)

// DefaultSheet is the tab used when none is configured.
const DefaultSheet = "Sheet1"

// FileClient keeps the workbook open and saves it after every write.
type FileClient struct {
	mu    sync.Mutex
	path  string
	sheet string
	file  *excelize.File
}

// IsWorkbookPath reports whether id names a local workbook rather than a
// spreadsheet id.
func IsWorkbookPath(id string) bool {
	return strings.HasSuffix(strings.ToLower(id), ".xlsx")
}

// Open opens path, creating the workbook (and the sheet) when missing.
func Open(path, sheet string) (*FileClient, error) {
	if sheet == "" {
		sheet = DefaultSheet
	}
	f, err := excelize.OpenFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.WithField("path", path).Info("creating workbook")
		f = excelize.NewFile()
		if err := f.SaveAs(path); err != nil {
			return nil, fmt.Errorf("create workbook %s: %w", path, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}

	c := &FileClient{path: path, sheet: sheet, file: f}
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return nil, fmt.Errorf("look up sheet %q: %w", sheet, err)
	}
	if idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("add sheet %q: %w", sheet, err)
		}
		if err := f.Save(); err != nil {
			return nil, fmt.Errorf("save workbook %s: %w", path, err)
		}
	}
	return c, nil
}

func (c *FileClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.file.Close()
}

func (c *FileClient) ReadRow(ctx context.Context, rng string) ([]interface{}, error) {
	col1, row, col2, _, err := bounds(rng)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, unavailable("read "+rng, err)
	}

	var out []interface{}
	for col := col1; col <= col2; col++ {
		v, err := c.cell(col, row)
		if err != nil {
			return nil, unavailable("read "+rng, err)
		}
		out = append(out, v)
	}
	return trimTrailing(out), nil
}

func (c *FileClient) ReadColumn(ctx context.Context, rng string) ([]interface{}, error) {
	col, row1, _, row2, err := bounds(rng)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, unavailable("read "+rng, err)
	}

	last, err := c.lastRow()
	if err != nil {
		return nil, unavailable("read "+rng, err)
	}
	var out []interface{}
	for row := row1; row <= row2 && row <= last; row++ {
		v, err := c.cell(col, row)
		if err != nil {
			return nil, unavailable("read "+rng, err)
		}
		out = append(out, v)
	}
	return trimTrailing(out), nil
}

func (c *FileClient) WriteCell(ctx context.Context, addr string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return unavailable("write "+addr, err)
	}
	if err := c.file.SetCellValue(c.sheet, addr, value); err != nil {
		return fmt.Errorf("write %s: %w", addr, err)
	}
	if err := c.file.Save(); err != nil {
		return unavailable("save", err)
	}
	return nil
}

func (c *FileClient) AppendRow(ctx context.Context, value interface{}) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return 0, unavailable("append", err)
	}

	cols, err := c.file.GetCols(c.sheet)
	if err != nil {
		return 0, unavailable("append", err)
	}
	row := 1
	if len(cols) > 0 {
		for i := len(cols[0]); i >= 1; i-- {
			if cols[0][i-1] != "" {
				row = i + 1
				break
			}
		}
	}
	addr := grid.CellName("A", row)
	if err := c.file.SetCellValue(c.sheet, addr, value); err != nil {
		return 0, fmt.Errorf("append at %s: %w", addr, err)
	}
	if err := c.file.Save(); err != nil {
		return 0, unavailable("save", err)
	}
	return row, nil
}

func (c *FileClient) cell(col, row int) (interface{}, error) {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, err
	}
	return c.file.GetCellValue(c.sheet, name)
}

func (c *FileClient) lastRow() (int, error) {
	rows, err := c.file.GetRows(c.sheet)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// bounds splits "A2:A1000" or "B2" into 1-based columns and rows.
func bounds(rng string) (col1, row1, col2, row2 int, err error) {
	from, to, found := strings.Cut(rng, ":")
	if col1, row1, err = excelize.CellNameToCoordinates(from); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("range %q: %w", rng, err)
	}
	if !found {
		return col1, row1, col1, row1, nil
	}
	if col2, row2, err = excelize.CellNameToCoordinates(to); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("range %q: %w", rng, err)
	}
	return col1, row1, col2, row2, nil
}

func trimTrailing(vals []interface{}) []interface{} {
	end := len(vals)
	for end > 0 && vals[end-1] == "" {
		end--
	}
	return vals[:end]
}

func unavailable(op string, err error) error {
	return fmt.Errorf("workbook %s: %w: %w", op, err, grid.ErrRemoteUnavailable)
}
