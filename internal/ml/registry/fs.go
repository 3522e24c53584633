package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FSStore keeps model entries under a fixed base path: the artifact blob at
// <base>/<name> and its metadata document at <base>/<name>.json.
type FSStore struct {
	basePath string
}

func NewFSStore(basePath string) *FSStore {
	return &FSStore{basePath: basePath}
}

func (s *FSStore) GetRecord(_ context.Context, name string) (*Record, error) {
	data, err := os.ReadFile(s.metaPath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read metadata %q: %w", name, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse metadata %q: %w", name, err)
	}
	return &rec, nil
}

func (s *FSStore) GetArtifact(_ context.Context, name string) ([]byte, error) {
	blob, err := os.ReadFile(s.artifactPath(name))
	if err != nil {
		return nil, fmt.Errorf("read artifact %q: %w", name, err)
	}
	return blob, nil
}

// Save writes a model entry; used by the external trainer and by tests.
func (s *FSStore) Save(_ context.Context, rec Record, blob []byte) error {
	if err := rec.Meta.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.metaPath(rec.Meta.Name), data, 0o644); err != nil {
		return err
	}
	return os.WriteFile(s.artifactPath(rec.Meta.Name), blob, 0o644)
}

func (s *FSStore) metaPath(name string) string {
	return filepath.Join(s.basePath, name+".json")
}

func (s *FSStore) artifactPath(name string) string {
	return filepath.Join(s.basePath, name)
}
