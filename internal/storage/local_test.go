package storage

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStoreSaveAndOpen(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), 1<<20)
	require.NoError(t, err)

	payload := []byte("%PDF-1.4 minimal test body")
	stored, err := store.Save(7, "thesis", "report.pdf", bytes.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, int64(len(payload)), stored.SizeBytes)
	require.Contains(t, stored.Path, "group_7")
	require.Contains(t, stored.ContentType, "application/pdf")

	rc, err := store.Open(stored.Path)
	require.NoError(t, err)
	defer rc.Close()

	read, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, payload, read)
}

func TestLocalStoreRejectsDisallowedExtension(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), 1<<20)
	require.NoError(t, err)

	_, err = store.Save(1, "thesis", "malware.exe", strings.NewReader("MZ"))
	require.ErrorIs(t, err, ErrExtensionNotAllowed)
}

func TestLocalStoreRejectsOversizedFile(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), 16)
	require.NoError(t, err)

	_, err = store.Save(1, "thesis", "big.pdf", strings.NewReader(strings.Repeat("a", 64)))
	require.ErrorIs(t, err, ErrFileTooLarge)
}

func TestLocalStoreRejectsPathTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), 1<<20)
	require.NoError(t, err)

	_, err = store.Open("../../etc/passwd")
	require.ErrorIs(t, err, ErrInvalidPath)
}

func TestLocalStoreRemoveMissingFile(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), 1<<20)
	require.NoError(t, err)

	require.NoError(t, store.Remove("group_1/thesis/gone.pdf"))
}
