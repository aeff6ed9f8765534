package models

import "time"

// MergeRun describes one execution of the merge pipeline.
type MergeRun struct {
	ID        string
	StartedAt time.Time
	Batches   []string
	Records   int
}
