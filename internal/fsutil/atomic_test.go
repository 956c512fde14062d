package fsutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockstep/internal/fsutil"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "package.json")

	require.NoError(t, fsutil.WriteFileAtomic(path, []byte("first"), 0o644))
	require.NoError(t, fsutil.WriteFileAtomic(path, []byte("second"), 0o644))

	//nolint:gosec // test path
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "package.json")
	require.Error(t, fsutil.WriteFileAtomic(path, []byte("x"), 0o644))
}

func TestSnapshot_RestoreExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "package.json")
	require.NoError(t, os.WriteFile(path, []byte("before"), 0o600))

	snap, err := fsutil.TakeSnapshot(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("after"), 0o600))
	require.NoError(t, snap.Restore(0o644))

	//nolint:gosec // test path
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "before", string(data))
}

func TestSnapshot_RestoreAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "package.json")

	snap, err := fsutil.TakeSnapshot(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("new"), 0o600))
	require.NoError(t, snap.Restore(0o644))

	assert.NoFileExists(t, path)
	require.NoError(t, snap.Restore(0o644), "restoring twice is harmless")
}

func TestDirBackup_Restore(t *testing.T) {
	parent := t.TempDir()
	staged := filepath.Join(parent, "imported")
	require.NoError(t, os.MkdirAll(filepath.Join(staged, "kotlin-stdlib"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(staged, "kotlin-stdlib", "package.json"), []byte("old"), 0o600))

	backup, err := fsutil.BackupDir(staged)
	require.NoError(t, err)
	assert.NoDirExists(t, staged)

	require.NoError(t, os.MkdirAll(filepath.Join(staged, "other"), 0o750))
	require.NoError(t, backup.Restore())

	//nolint:gosec // test path
	data, err := os.ReadFile(filepath.Join(staged, "kotlin-stdlib", "package.json"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
	assert.NoDirExists(t, filepath.Join(staged, "other"))

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "backup holder must be removed")
}

func TestDirBackup_RestoreMissing(t *testing.T) {
	staged := filepath.Join(t.TempDir(), "imported")

	backup, err := fsutil.BackupDir(staged)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(staged, 0o750))
	require.NoError(t, backup.Restore())
	assert.NoDirExists(t, staged)
}

func TestDirBackup_Discard(t *testing.T) {
	parent := t.TempDir()
	staged := filepath.Join(parent, "imported")
	require.NoError(t, os.MkdirAll(staged, 0o750))

	backup, err := fsutil.BackupDir(staged)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(staged, "fresh"), 0o750))
	require.NoError(t, backup.Discard())

	assert.DirExists(t, filepath.Join(staged, "fresh"))
	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
