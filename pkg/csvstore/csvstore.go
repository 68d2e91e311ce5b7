// Package csvstore persists raw trigram profiles as two-column CSV files.
//
// Each row is a trigram and its integer count, no header. Rows are written in
// descending count order, so files are stable for the same profile.
package csvstore

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/umputun/lequel/pkg/trigram"
)

// WriteProfile writes a raw profile to path, replacing the file atomically.
// An empty profile is not written and trigram.ErrEmptyProfile is returned.
func WriteProfile(path string, profile trigram.Profile) error {
	if len(profile) == 0 {
		return trigram.ErrEmptyProfile
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("make dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := Write(tmp, profile); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

// Write encodes profile rows to w
func Write(w io.Writer, profile trigram.Profile) error {
	bw := bufio.NewWriter(w)
	cw := csv.NewWriter(bw)
	for _, row := range profile.Rows() {
		if err := cw.Write([]string{row.Trigram, strconv.Itoa(row.Count)}); err != nil {
			return fmt.Errorf("write row %q: %w", row.Trigram, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// ReadProfile loads a raw profile written by WriteProfile
func ReadProfile(path string) (trigram.Profile, error) {
	fh, err := os.Open(path) //nolint:gosec // path comes from config
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()

	res, err := Read(fh)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return res, nil
}

// Read decodes profile rows from r
func Read(r io.Reader) (trigram.Profile, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2

	var rows []trigram.Row
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		count, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, fmt.Errorf("row %d, count %q: %w", len(rows)+1, record[1], err)
		}
		rows = append(rows, trigram.Row{Trigram: record[0], Count: count})
	}
	return trigram.FromRows(rows)
}
