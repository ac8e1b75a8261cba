package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// IndexName is the file name of the results index.
const IndexName = "results.json"

// NewRunID returns a unique run identifier.
func NewRunID() string {
	return uuid.New().String()
}

// WriteIndex writes index to <dir>/results.json, replacing any previous file
// atomically.
func WriteIndex(dir string, index *Index) error {
	if index.Version == "" {
		index.Version = Version
	}
	index.Summary = Summarize(index.Results)
	return atomicWriteJSON(filepath.Join(dir, IndexName), index)
}

// ReadIndex loads a results index.
func ReadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided results file
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse index %s: %w", path, err)
	}
	return &index, nil
}

// atomicWriteJSON marshals v and renames a temporary file over path.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", tmpName, err)
	}
	return nil
}
