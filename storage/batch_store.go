package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"usedcars-pipeline/models"
	"usedcars-pipeline/utils"
)

var (
	// ErrTargetNotFound is returned when an explicitly named batch does not exist.
	ErrTargetNotFound = errors.New("target batch not found")
	// ErrInvalidTarget is returned when an explicitly named batch cannot be a raw batch.
	ErrInvalidTarget = errors.New("target is not a raw batch")
)

// FileStore keeps raw batches and the accumulated dataset as delimited files
// in one data directory.
type FileStore struct {
	dir         string
	datasetFile string
	batchExt    string
	logger      *utils.Logger
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir, datasetFile, batchExt string, logger *utils.Logger) *FileStore {
	return &FileStore{dir: dir, datasetFile: datasetFile, batchExt: batchExt, logger: logger}
}

// DatasetPath returns the accumulated dataset file path.
func (s *FileStore) DatasetPath() string {
	return filepath.Join(s.dir, s.datasetFile)
}

// Init creates the data directory and an empty dataset file when absent.
func (s *FileStore) Init() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("store: create data dir: %w", err)
	}
	if fileExists(s.DatasetPath()) {
		return nil
	}
	s.logger.Info("[store] Creating empty dataset %s", s.DatasetPath())
	return s.WriteDataset(models.NewCanonicalTable())
}

// ListBatches returns every eligible batch file name in sorted order.
// A missing data directory yields no batches.
func (s *FileStore) ListBatches() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: list %q: %w", s.dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !s.isBatchName(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ResolveTarget validates an explicitly named batch and returns its name.
func (s *FileStore) ResolveTarget(name string) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("store: %q: %w", name, ErrInvalidTarget)
	}
	if !s.isBatchName(name) {
		return "", fmt.Errorf("store: %q: %w", name, ErrInvalidTarget)
	}
	info, err := os.Stat(filepath.Join(s.dir, name))
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("store: %q: %w", name, ErrTargetNotFound)
	}
	return name, nil
}

func (s *FileStore) isBatchName(name string) bool {
	return strings.HasSuffix(name, s.batchExt) && name != s.datasetFile && !strings.HasPrefix(name, ".")
}

// ReadBatch reads one raw batch.
func (s *FileStore) ReadBatch(name string) (*models.Table, error) {
	return s.readFile(filepath.Join(s.dir, name))
}

// ReadDataset reads the accumulated dataset. A missing file yields an empty
// canonical table.
func (s *FileStore) ReadDataset() (*models.Table, error) {
	if !fileExists(s.DatasetPath()) {
		return models.NewCanonicalTable(), nil
	}
	return s.readFile(s.DatasetPath())
}

// WriteDataset replaces the dataset file with t.
func (s *FileStore) WriteDataset(t *models.Table) error {
	err := writeFileAtomic(s.DatasetPath(), func(w io.Writer) error {
		return WriteTable(w, t)
	})
	if err != nil {
		return fmt.Errorf("store: write dataset: %w", err)
	}
	return nil
}

func (s *FileStore) readFile(path string) (*models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}
	defer f.Close()

	t, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", filepath.Base(path), err)
	}
	return t, nil
}
