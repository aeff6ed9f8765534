package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usedcars-pipeline/models"
)

type tableReader struct{ t *models.Table }

func (r tableReader) ReadDataset() (*models.Table, error) { return r.t, nil }

func servingTable() *models.Table {
	tbl := models.NewCanonicalTable()
	for _, row := range [][3]string{
		{"a", "Fiat", "8900"},
		{"b", "BMW", ""},
		{"c", "Fiat", "9900"},
	} {
		l := models.NewListing(row[0])
		for _, c := range tbl.Columns {
			l.SetMissing(c)
		}
		l.Set(models.FieldMaker, row[1])
		l.Set(models.FieldPrice, row[2])
		tbl.Append(l)
	}
	return tbl
}

func TestLoadDatasetSelectsColumns(t *testing.T) {
	got, err := LoadDataset(tableReader{servingTable()}, LoadOptions{
		Columns: []string{models.FieldMaker, models.FieldPrice},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{models.FieldMaker, models.FieldPrice}, got.Columns)
	require.Equal(t, 3, got.Len())
	assert.Len(t, got.Listings[0].Values, 2)
}

func TestLoadDatasetLimitAndDropMissing(t *testing.T) {
	got, err := LoadDataset(tableReader{servingTable()}, LoadOptions{
		Columns:     []string{models.FieldMaker, models.FieldPrice},
		Limit:       2,
		DropMissing: true,
	})
	require.NoError(t, err)

	require.Equal(t, 1, got.Len())
	assert.Equal(t, "a", got.Listings[0].Key)
}

func TestLoadDatasetUnknownColumn(t *testing.T) {
	_, err := LoadDataset(tableReader{servingTable()}, LoadOptions{Columns: []string{"colour"}})
	assert.Error(t, err)
}
