// Package fspersist is the default core.Persistence: a single zstd-
// compressed snapshot file on local disk (§6). Saves write to a temp
// file in the same directory and rename over the target so a reader
// never observes a partially-written snapshot.
package fspersist

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Save(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("fspersist: create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("fspersist: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	zw, err := zstd.NewWriter(tmp)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("fspersist: new zstd writer: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		tmp.Close()
		return fmt.Errorf("fspersist: write snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("fspersist: close zstd writer: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("fspersist: close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("fspersist: rename into place: %w", err)
	}
	return nil
}

// Load returns (nil, nil) when no snapshot has been saved yet, so a
// fresh scheduler can distinguish "nothing to restore" from a read
// failure.
func (s *Store) Load() ([]byte, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fspersist: open snapshot: %w", err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("fspersist: new zstd reader: %w", err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("fspersist: read snapshot: %w", err)
	}
	return data, nil
}
