package cache

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DiskCache stores one file per key under a base directory, named by
// the hex-encoded key string. This is the canonical on-disk layout;
// the other providers exist as drop-in alternatives.
type DiskCache struct {
	dir string
}

// NewDiskCache creates a disk cache rooted at dir. The directory is
// created if it does not exist.
func NewDiskCache(dir string) (DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return DiskCache{}, err
	}
	return DiskCache{dir: dir}, nil
}

func (d DiskCache) path(key string) string {
	return filepath.Join(d.dir, key)
}

func (d DiskCache) Get(key string) ([]byte, bool, error) {
	record, err := os.ReadFile(d.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return record, true, nil
}

// Put writes the record to a temporary file in the cache directory and
// renames it into place, so a concurrent Get sees either nothing or a
// complete record.
func (d DiskCache) Put(key string, record []byte) error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(d.dir, key+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(record); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), d.path(key))
}

func (d DiskCache) Has(key string) bool {
	_, err := os.Stat(d.path(key))
	return err == nil
}

func (d DiskCache) Clear() error {
	entries, err := os.ReadDir(d.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(d.dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (d DiskCache) Keys(cb func(string)) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || strings.Contains(entry.Name(), ".tmp-") {
			continue
		}
		cb(entry.Name())
	}
}
