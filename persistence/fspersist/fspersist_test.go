package fspersist

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	store := New(filepath.Join(dir, "nested", "snapshot.bin"))

	payload := []byte(`{"task_counter":42}`)
	require.NoError(t, store.Save(payload))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestLoadWithoutPriorSaveReturnsNilNil(t *testing.T) {
	dir := t.TempDir()
	store := New(filepath.Join(dir, "snapshot.bin"))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveOverwritesPreviousSnapshot(t *testing.T) {
	dir := t.TempDir()
	store := New(filepath.Join(dir, "snapshot.bin"))

	require.NoError(t, store.Save([]byte("first")))
	require.NoError(t, store.Save([]byte("second")))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}
