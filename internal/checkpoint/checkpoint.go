// Package checkpoint persists simulation state as self-describing CBOR,
// written atomically so a crash mid-write never leaves a partial file
// visible under its final name.
package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Write serializes v as CBOR and publishes it at path via a temporary
// file in the same directory followed by a rename.
func Write(path string, v any) error {
	data, err := cbor.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to publish %s: %w", path, err)
	}
	return nil
}

// Read decodes the CBOR file at path into v.
func Read(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read checkpoint %s: %w", path, err)
	}
	if err := cbor.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode checkpoint %s: %w", path, err)
	}
	return nil
}

// FrameDir returns the movie-frame directory for a checkpoint path:
// the checkpoint path with its extension stripped.
func FrameDir(saveAs string) string {
	return strings.TrimSuffix(saveAs, filepath.Ext(saveAs))
}

// FramePath returns the file a movie frame at the given move count is
// written to: a 14-digit zero-padded move count inside FrameDir.
func FramePath(saveAs string, moves uint64) string {
	return filepath.Join(FrameDir(saveAs), fmt.Sprintf("%014d.cbor", moves))
}
