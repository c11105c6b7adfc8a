package patterns

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Repository defines the persistence interface for the pattern document.
// Abstracted for testability (DIP).
//
// The engine reloads the document at the start of every operation and
// writes it back in full at the end of mutating ones; nothing is cached
// between calls.
type Repository interface {
	// LoadOrDefault never fails: a missing or unreadable document is
	// treated as an empty one.
	LoadOrDefault() *Document
	// Save overwrites the whole document. Failures must be surfaced.
	Save(doc *Document) error
}

// FileStore implements Repository on a single JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed pattern repository at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the location of the backing JSON file.
func (fs *FileStore) Path() string {
	return fs.path
}

// LoadOrDefault reads the document, falling back to an empty one.
func (fs *FileStore) LoadOrDefault() *Document {
	doc, err := fs.load()
	if err != nil {
		return NewDocument()
	}
	return doc
}

func (fs *FileStore) load() (*Document, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		return nil, fmt.Errorf("reading patterns: %w", err)
	}

	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parsing patterns: %w", err)
	}
	doc.normalize()
	return doc, nil
}

// Save writes the document to a temp file in the same directory and
// renames it into place, so readers never observe a partial write.
func (fs *FileStore) Save(doc *Document) error {
	doc.normalize()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling patterns: %w", err)
	}

	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating patterns directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".patterns-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing patterns: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		return fmt.Errorf("replacing patterns file: %w", err)
	}
	return nil
}
