package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"usedcars-pipeline/models"
	"usedcars-pipeline/storage"
	"usedcars-pipeline/utils"
)

// MergeOptions selects what one run processes.
type MergeOptions struct {
	// Target names a single batch; empty means every unmerged batch.
	Target string
	// Refresh discards the ledger and the dataset before running.
	Refresh bool
}

// BatchFailure is a batch that could not be read or cleaned.
type BatchFailure struct {
	Batch string
	Err   error
}

// MergeReport summarizes one merge run.
type MergeReport struct {
	Run        models.MergeRun
	Candidates []string
	Merged     []string
	Failed     []BatchFailure
	Records    int
	Persisted  bool
}

// Merger folds newly scraped batches into the accumulated dataset.
type Merger struct {
	logger    *utils.Logger
	store     storage.BatchStore
	ledger    storage.BatchLedger
	cleaner   *Cleaner
	exporters []storage.DatasetWriter
	now       func() time.Time
}

// NewMerger creates a Merger. Exporters receive the dataset after it is persisted.
func NewMerger(logger *utils.Logger, store storage.BatchStore, ledger storage.BatchLedger, cleaner *Cleaner, exporters ...storage.DatasetWriter) *Merger {
	return &Merger{
		logger:    logger,
		store:     store,
		ledger:    ledger,
		cleaner:   cleaner,
		exporters: exporters,
		now:       time.Now,
	}
}

// Run executes one merge pass. Per-batch failures are reported, not returned;
// only initialization and persistence errors are.
func (m *Merger) Run(ctx context.Context, opts MergeOptions) (*MergeReport, error) {
	report := &MergeReport{Run: models.MergeRun{ID: uuid.NewString(), StartedAt: m.now()}}

	dataset, err := m.init(opts.Refresh)
	if err != nil {
		return report, err
	}

	report.Candidates = m.discover(opts.Target)
	if len(report.Candidates) == 0 {
		m.logger.Info("[merge] No targets!")
		report.Records = dataset.Len()
		return report, nil
	}
	m.logger.Info("[merge] Run %s: target batches %v", report.Run.ID, report.Candidates)

	for i, name := range report.Candidates {
		m.logger.Info("[merge] Processing batch %s (%d/%d)", name, i+1, len(report.Candidates))

		cleaned, err := m.processBatch(name)
		if err != nil {
			m.logger.Error("[merge] Error in batch %s: %v", name, err)
			report.Failed = append(report.Failed, BatchFailure{Batch: name, Err: err})
			continue
		}
		m.ledger.Record(name)
		dataset.Concat(cleaned)
		report.Merged = append(report.Merged, name)
	}

	dataset = Deduplicate(dataset)
	report.Records = dataset.Len()
	report.Run.Batches = report.Merged
	report.Run.Records = dataset.Len()
	m.logger.Info("[merge] All targets processed: %d merged, %d failed",
		len(report.Merged), len(report.Failed))
	m.logger.Info("[merge] Main dataset now contains %d records", dataset.Len())

	// Dataset first: a ledger ahead of the dataset would hide unmerged batches.
	if err := m.store.WriteDataset(dataset); err != nil {
		return report, err
	}
	if err := m.ledger.Save(); err != nil {
		return report, err
	}
	report.Persisted = true

	return report, m.export(ctx, report.Run, dataset)
}

// init prepares the workspace and loads the starting ledger and dataset.
func (m *Merger) init(refresh bool) (*models.Table, error) {
	if err := m.store.Init(); err != nil {
		return nil, err
	}
	if err := m.ledger.Init(); err != nil {
		return nil, err
	}

	if refresh {
		m.logger.Info("[merge] Full refresh: starting from an empty dataset and ledger")
		m.ledger.Reset()
		return models.NewCanonicalTable(), nil
	}

	if _, err := m.ledger.Load(); err != nil {
		return nil, err
	}
	dataset, err := m.store.ReadDataset()
	if err != nil {
		return nil, err
	}
	projector := NewSchemaProjector()
	projector.Project(dataset)
	projector.Reorder(dataset)
	return dataset, nil
}

// discover returns the batches this run should process, ledger entries excluded.
func (m *Merger) discover(target string) []string {
	var names []string
	if target != "" {
		name, err := m.store.ResolveTarget(target)
		if err != nil {
			m.logger.Warn("[merge] Target not found or inconsistent: %v", err)
			return nil
		}
		names = []string{name}
	} else {
		all, err := m.store.ListBatches()
		if err != nil {
			m.logger.Warn("[merge] Cannot list batches: %v", err)
			return nil
		}
		names = all
	}

	var candidates []string
	for _, n := range names {
		if m.ledger.Contains(n) {
			m.logger.Debug("[merge] Skipping already merged batch %s", n)
			continue
		}
		candidates = append(candidates, n)
	}
	return candidates
}

func (m *Merger) processBatch(name string) (*models.Table, error) {
	raw, err := m.store.ReadBatch(name)
	if err != nil {
		return nil, err
	}
	cleaned, err := m.cleaner.Clean(raw)
	if err != nil {
		return nil, fmt.Errorf("clean %s: %w", name, err)
	}
	m.logger.Debug("[merge] Batch %s: %d listings", name, cleaned.Len())
	return cleaned, nil
}

func (m *Merger) export(ctx context.Context, run models.MergeRun, dataset *models.Table) error {
	var errs []error
	for _, w := range m.exporters {
		if err := w.Write(ctx, run, dataset); err != nil {
			m.logger.Error("[merge] Export to %s failed: %v", w.Name(), err)
			errs = append(errs, fmt.Errorf("export %s: %w", w.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Deduplicate keeps the first listing seen for every key, preserving order.
func Deduplicate(t *models.Table) *models.Table {
	seen := utils.NewKeySet()
	out := models.NewTable(t.Columns)
	for _, l := range t.Listings {
		if seen.Add(l.Key) {
			out.Append(l)
		}
	}
	return out
}
