package storage

import (
	"context"

	"usedcars-pipeline/models"
)

// BatchStore gives access to raw batches and the accumulated dataset.
type BatchStore interface {
	Init() error
	ListBatches() ([]string, error)
	ResolveTarget(name string) (string, error)
	ReadBatch(name string) (*models.Table, error)
	ReadDataset() (*models.Table, error)
	WriteDataset(t *models.Table) error
}

// BatchLedger tracks which raw batches have already been merged.
type BatchLedger interface {
	Init() error
	Load() ([]string, error)
	Contains(id string) bool
	Record(id string)
	Reset()
	Entries() []string
	Save() error
}

// DatasetWriter is the interface any export backend must satisfy.
type DatasetWriter interface {
	Name() string
	Write(ctx context.Context, run models.MergeRun, dataset *models.Table) error
	Close() error
}

// DatasetReader loads the accumulated dataset for consumers.
type DatasetReader interface {
	ReadDataset() (*models.Table, error)
}
