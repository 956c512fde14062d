// Package fsutil holds small file system helpers shared by adapters and the engine.
package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to a temporary file next to path and renames it into place,
// so readers see either the previous content or the new content.
func WriteFileAtomic(path string, data []byte, perm fs.FileMode) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Snapshot captures the content of a file so it can be put back after a failed operation.
type Snapshot struct {
	path    string
	data    []byte
	existed bool
}

// TakeSnapshot reads the current content of path. A missing file is recorded as absent.
func TakeSnapshot(path string) (*Snapshot, error) {
	//nolint:gosec // path is provided by trusted caller
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Snapshot{path: path}, nil
		}
		return nil, err
	}
	return &Snapshot{path: path, data: data, existed: true}, nil
}

// Restore puts the captured content back, removing the file if it did not exist.
func (s *Snapshot) Restore(perm fs.FileMode) error {
	if !s.existed {
		err := os.Remove(s.path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return WriteFileAtomic(s.path, s.data, perm)
}

// DirBackup holds a directory moved aside so it can be put back after a failed operation.
type DirBackup struct {
	path   string
	holder string
}

// BackupDir moves the directory at path aside. A missing directory is recorded as absent.
func BackupDir(path string) (*DirBackup, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &DirBackup{path: path}, nil
		}
		return nil, err
	}

	holder, err := os.MkdirTemp(filepath.Dir(path), "."+filepath.Base(path)+".bak-*")
	if err != nil {
		return nil, err
	}
	if err := os.Rename(path, filepath.Join(holder, filepath.Base(path))); err != nil {
		_ = os.RemoveAll(holder)
		return nil, err
	}
	return &DirBackup{path: path, holder: holder}, nil
}

// Restore replaces whatever is at the path with the backed up directory, or removes it if
// there was none.
func (b *DirBackup) Restore() error {
	if err := os.RemoveAll(b.path); err != nil {
		return err
	}
	if b.holder == "" {
		return nil
	}
	if err := os.Rename(filepath.Join(b.holder, filepath.Base(b.path)), b.path); err != nil {
		return err
	}
	return os.RemoveAll(b.holder)
}

// Discard drops the backup, keeping the current content of the path.
func (b *DirBackup) Discard() error {
	if b.holder == "" {
		return nil
	}
	return os.RemoveAll(b.holder)
}
