package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"arts_scrooper/models"
)

// JSONStore keeps the event list as a single indented JSON array on disk.
type JSONStore struct {
	path string
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Path() string { return s.path }

// ReadAll treats a missing or empty file as no events.
func (s *JSONStore) ReadAll(ctx context.Context) ([]models.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Event{}, nil
		}
		return nil, eris.Wrapf(err, "json store: read %s", s.path)
	}
	if len(data) == 0 {
		return []models.Event{}, nil
	}

	var events []models.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, eris.Wrapf(err, "json store: decode %s", s.path)
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

// WriteAll writes to a temp file in the same directory and renames it over
// the target, so readers never see a partial file.
func (s *JSONStore) WriteAll(ctx context.Context, events []models.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if events == nil {
		events = []models.Event{}
	}

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return eris.Wrap(err, "json store: encode")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return eris.Wrapf(err, "json store: create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "json store: create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return eris.Wrap(err, "json store: write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return eris.Wrap(err, "json store: sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "json store: close temp file")
	}

	// CreateTemp uses 0600; keep the existing file's mode or fall back to 0644.
	mode := os.FileMode(0644)
	if info, err := os.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return eris.Wrap(err, "json store: chmod temp file")
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return eris.Wrapf(err, "json store: replace %s", s.path)
	}
	return nil
}
