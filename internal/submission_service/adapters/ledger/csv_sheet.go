package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// CSVSheet keeps the ledger in a local CSV file. Used when no spreadsheet
// is configured. The header counts as row 1, like in the spreadsheet.
type CSVSheet struct {
	mu   sync.Mutex
	path string
}

// NewCSVSheet opens path, writing the header when the file is new.
func NewCSVSheet(path string) (*CSVSheet, error) {
	s := &CSVSheet{path: path}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create ledger dir: %w", err)
			}
		}
		if err := s.writeAll([][]string{Header}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat ledger file: %w", err)
	}
	return s, nil
}

func (s *CSVSheet) AppendRow(_ context.Context, values []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open ledger file: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(values); err != nil {
		f.Close()
		return 0, fmt.Errorf("write ledger row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return 0, fmt.Errorf("flush ledger row: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close ledger file: %w", err)
	}

	rows, err := s.readAll()
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *CSVSheet) UpdateCell(_ context.Context, row, col int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readAll()
	if err != nil {
		return err
	}
	if row < 1 || row > len(rows) {
		return fmt.Errorf("row %d does not exist", row)
	}
	if col < 1 {
		return fmt.Errorf("column %d out of range", col)
	}
	for len(rows[row-1]) < col {
		rows[row-1] = append(rows[row-1], "")
	}
	rows[row-1][col-1] = value
	return s.writeAll(rows)
}

func (s *CSVSheet) ReadRow(_ context.Context, row int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readAll()
	if err != nil {
		return nil, err
	}
	if row < 1 || row > len(rows) {
		return nil, fmt.Errorf("row %d does not exist", row)
	}
	out := make([]string, len(rows[row-1]))
	copy(out, rows[row-1])
	return out, nil
}

func (s *CSVSheet) readAll() ([][]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read ledger file: %w", err)
	}
	return rows, nil
}

// writeAll replaces the file through a temp file and rename.
func (s *CSVSheet) writeAll(rows [][]string) error {
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create ledger file: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write ledger file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close ledger file: %w", err)
	}
	return os.Rename(tmp, s.path)
}
