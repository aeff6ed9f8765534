package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLedgerLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "added_batches.json")
	l := NewJSONLedger(path)

	entries, err := l.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, l.Init())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	l.Record("a.csv")
	l.Record("b.csv")
	l.Record("a.csv")
	assert.True(t, l.Contains("b.csv"))
	assert.False(t, l.Contains("c.csv"))
	require.NoError(t, l.Save())

	reloaded := NewJSONLedger(path)
	entries, err = reloaded.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.csv", "b.csv"}, entries)

	reloaded.Reset()
	assert.Empty(t, reloaded.Entries())
	assert.False(t, reloaded.Contains("a.csv"))
}

func TestJSONLedgerLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "added_batches.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewJSONLedger(path).Load()
	assert.Error(t, err)
}
