package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, maxSize int64, allowed []string) *UploadStore {
	t.Helper()
	store, err := NewUploadStore(t.TempDir(), maxSize, allowed)
	require.NoError(t, err)
	return store
}

func TestUploadStoreSaveAndOpen(t *testing.T) {
	store := newTestStore(t, 1024, nil)

	stored, err := store.Save([]byte("resume body"), "resume.pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", stored.MIMEType)
	assert.Equal(t, int64(len("resume body")), stored.Size)
	assert.NotEqual(t, "resume.pdf", stored.Filename)
	assert.True(t, store.Exists(stored.Filename))

	f, err := store.Open(stored.Filename)
	require.NoError(t, err)
	f.Close()
}

func TestUploadStoreRejectsOversizedFile(t *testing.T) {
	store := newTestStore(t, 4, nil)

	_, err := store.Save([]byte("too large"), "resume.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum size")
}

func TestUploadStoreRejectsUnknownExtension(t *testing.T) {
	store := newTestStore(t, 1024, nil)

	_, err := store.Save([]byte("#!/bin/sh"), "script.sh")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed")
}

func TestUploadStoreHonoursAllowList(t *testing.T) {
	store := newTestStore(t, 1024, []string{"application/pdf"})

	_, err := store.Save([]byte("notes"), "notes.txt")
	require.Error(t, err)

	_, err = store.Save([]byte("resume"), "resume.pdf")
	assert.NoError(t, err)
}

func TestUploadStoreDeleteMissingIsNoop(t *testing.T) {
	store := newTestStore(t, 1024, nil)
	assert.NoError(t, store.Delete("never-there.pdf"))
}
