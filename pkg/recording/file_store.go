package recording

import (
	"fmt"
	"os"
	"path/filepath"
)

// SaveTranscriptFile writes t to path. The file is written to a temporary
// sibling first and renamed into place.
func SaveTranscriptFile(path string, t *Transcript) error {
	data, err := t.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// LoadTranscriptFile reads a transcript written by SaveTranscriptFile or
// Record.
func LoadTranscriptFile(path string) (*Transcript, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	defer f.Close()

	t, err := ReadTranscript(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transcript %s: %w", path, err)
	}
	return t, nil
}
