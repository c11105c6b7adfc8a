package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// JSONL appends records as newline-delimited JSON.
type JSONL struct {
	path string
	mu   sync.Mutex
}

// NewJSONL creates a recorder writing to path. The file and its parent
// directory are created on first append.
func NewJSONL(path string) *JSONL {
	return &JSONL{path: path}
}

// Append writes rec as a single line.
func (j *JSONL) Append(rec Record) error {
	rec = stamp(rec)
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling history record: %w", err)
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening history log: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("appending history record: %w", err)
	}
	return f.Close()
}
