package storage

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"usedcars-pipeline/models"
)

// Separator is the field delimiter of raw batches and of the dataset file.
const Separator = ';'

// ErrMissingKeyColumn is returned when a delimited file has no key column.
var ErrMissingKeyColumn = errors.New("missing key column " + models.KeyColumn)

// ReadTable parses a delimited file whose key column is models.KeyColumn.
// Missing-value markers are read as empty cells.
func ReadTable(r io.Reader) (*models.Table, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.Comma = Separator
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv: empty file: %w", ErrMissingKeyColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	keyIdx := -1
	seen := make(map[string]struct{}, len(header))
	var columns []string
	for i, h := range header {
		if h == models.KeyColumn && keyIdx < 0 {
			keyIdx = i
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		columns = append(columns, h)
	}
	if keyIdx < 0 {
		return nil, fmt.Errorf("csv: header %q: %w", strings.Join(header, string(Separator)), ErrMissingKeyColumn)
	}

	t := models.NewTable(columns)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read row: %w", err)
		}
		l := models.NewListing(rec[keyIdx])
		for i, v := range rec {
			if i == keyIdx {
				continue
			}
			if models.IsMissing(v) {
				v = ""
			}
			l.Set(header[i], v)
		}
		t.Append(l)
	}
	return t, nil
}

// WriteTable writes t with the key column first, then t.Columns.
func WriteTable(w io.Writer, t *models.Table) error {
	cw := csv.NewWriter(w)
	cw.Comma = Separator

	if err := cw.Write(append([]string{models.KeyColumn}, t.Columns...)); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, l := range t.Listings {
		if err := cw.Write(append([]string{l.Key}, t.Row(l)...)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeFileAtomic writes through a temp file in the same directory and renames
// it over path, so readers see either the old or the new content.
func writeFileAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create dir %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %q: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	bw := bufio.NewWriter(tmp)
	if err := write(bw); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush %q: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %q: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("chmod %q: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into %q: %w", path, err)
	}
	return nil
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
