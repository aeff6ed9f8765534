package storage

import (
	"fmt"

	"usedcars-pipeline/models"
)

// ServingColumns is the column subset the dashboards and the evaluator read.
var ServingColumns = []string{
	models.FieldMaker,
	models.FieldModel,
	models.FieldRegistration,
	models.FieldMileage,
	models.FieldPowerCV,
	models.FieldFuel,
	models.FieldBody,
	models.FieldEngineSize,
	models.FieldGearbox,
	models.FieldDriveTrain,
	models.FieldPrice,
}

// LoadOptions controls how LoadDataset reads the accumulated dataset.
type LoadOptions struct {
	// Columns to keep; empty keeps every column.
	Columns []string
	// Limit caps the number of rows read; zero or less reads all.
	Limit int
	// DropMissing discards rows missing any selected column.
	DropMissing bool
}

// LoadDataset reads the accumulated dataset from r and shapes it for a consumer.
func LoadDataset(r DatasetReader, opts LoadOptions) (*models.Table, error) {
	t, err := r.ReadDataset()
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	columns := t.Columns
	if len(opts.Columns) > 0 {
		for _, c := range opts.Columns {
			if !t.HasColumn(c) {
				return nil, fmt.Errorf("load dataset: unknown column %q", c)
			}
		}
		columns = opts.Columns
	}

	rows := t.Listings
	if opts.Limit > 0 && len(rows) > opts.Limit {
		rows = rows[:opts.Limit]
	}

	out := models.NewTable(columns)
	for _, l := range rows {
		if opts.DropMissing && !hasAll(l, columns) {
			continue
		}
		kept := models.NewListing(l.Key)
		for _, c := range columns {
			kept.Set(c, l.Text(c))
		}
		out.Append(kept)
	}
	return out, nil
}

func hasAll(l *models.Listing, columns []string) bool {
	for _, c := range columns {
		if _, ok := l.Get(c); !ok {
			return false
		}
	}
	return true
}
