// Package ingestion drives a Document from pending to completed or failed
// through extract, chunk, embed, and upsert stages (spec §4.D).
package ingestion

import (
	"io"
	"os"
	"path/filepath"

	"github.com/maxwell-labs/ragbench/pkg/apperrors"
)

// Storage persists uploaded document bytes on the local filesystem under
// uploads/{workspace_id}/{document_id} (spec §6).
type Storage struct {
	root string
}

// NewStorage roots file storage at dir, creating it if necessary.
func NewStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "creating upload root %s", dir)
	}
	return &Storage{root: dir}, nil
}

// Path returns the on-disk path for a document, independent of whether it
// has been written yet.
func (s *Storage) Path(workspaceID, documentID string) string {
	return filepath.Join(s.root, workspaceID, documentID)
}

// Save streams src to the document's path, creating the workspace
// subdirectory as needed.
func (s *Storage) Save(workspaceID, documentID string, src io.Reader) (string, error) {
	dir := filepath.Join(s.root, workspaceID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperrors.Wrap(apperrors.KindInternal, err, "creating workspace upload dir")
	}
	path := s.Path(workspaceID, documentID)
	f, err := os.Create(path)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindInternal, err, "creating document file")
	}
	defer f.Close()
	if _, err := io.Copy(f, src); err != nil {
		return "", apperrors.Wrap(apperrors.KindInternal, err, "writing document file")
	}
	return path, nil
}
