package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usedcars-pipeline/models"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s := NewSQLiteStore(filepath.Join(t.TempDir(), "usedcars.db"), quietLogger())
	defer s.Close()

	tbl := models.NewCanonicalTable()
	for _, key := range []string{"b-car", "a-car"} {
		l := models.NewListing(key)
		for _, c := range tbl.Columns {
			l.SetMissing(c)
		}
		l.Set(models.FieldPrice, "8900")
		l.Set(models.FieldRegistration, "2019-03-01")
		l.SetBool(models.FieldCertifiedService, true)
		l.Set(models.FieldMaker, "Fiat")
		tbl.Append(l)
	}
	run := models.MergeRun{ID: "run-1", StartedAt: time.Now(), Batches: []string{"a.csv"}, Records: 2}

	require.NoError(t, s.Write(context.Background(), run, tbl))
	// Rewriting replaces the table instead of accumulating rows.
	require.NoError(t, s.Write(context.Background(), run, tbl))

	back, err := s.ReadDataset()
	require.NoError(t, err)
	require.Equal(t, 2, back.Len())
	assert.Equal(t, models.CanonicalNames(), back.Columns)

	first := back.Listings[0]
	assert.Equal(t, "a-car", first.Key)
	assert.Equal(t, "8900", first.Text(models.FieldPrice))
	assert.Equal(t, "2019-03-01", first.Text(models.FieldRegistration))
	assert.Equal(t, "True", first.Text(models.FieldCertifiedService))
	assert.Equal(t, "Fiat", first.Text(models.FieldMaker))
	assert.Equal(t, "", first.Text(models.FieldMileage))
}
