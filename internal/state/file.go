package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cast"

	"github.com/couchcryptid/water-outage-monitor/internal/domain"
)

// FileStore keeps the state in a JSON file.
type FileStore struct {
	path   string
	county string
}

// NewFileStore creates a JSON file store. The county is recorded in new states.
func NewFileStore(path, county string) *FileStore {
	return &FileStore{path: path, county: county}
}

func (f *FileStore) Load(_ context.Context) (*MonitorState, error) {
	st, err := Load(f.path)
	if st.County == "" {
		st.County = f.county
	}
	return st, err
}

func (f *FileStore) Save(_ context.Context, st *MonitorState) error {
	return Save(f.path, st)
}

func (f *FileStore) Close() error { return nil }

// Load reads the state file at path. A missing file returns an empty state
// and a nil error. An unreadable or corrupt file returns an empty state with
// an error wrapping domain.ErrStateIO, so callers may degrade and continue.
func Load(path string) (*MonitorState, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied state path
	if errors.Is(err, fs.ErrNotExist) {
		return New(""), nil
	}
	if err != nil {
		return New(""), fmt.Errorf("%w: read %s: %w", domain.ErrStateIO, path, err)
	}
	st, err := decode(data)
	if err != nil {
		return New(""), fmt.Errorf("%w: parse %s: %w", domain.ErrStateIO, path, err)
	}
	return st, nil
}

// Save writes st to path atomically: the JSON is written to a temporary file
// in the same directory, synced, then renamed over the target.
func Save(path string, st *MonitorState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %w", domain.ErrStateIO, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp: %w", domain.ErrStateIO, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write temp: %w", domain.ErrStateIO, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: sync temp: %w", domain.ErrStateIO, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp: %w", domain.ErrStateIO, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: rename: %w", domain.ErrStateIO, err)
	}
	return nil
}

func decode(data []byte) (*MonitorState, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return New(""), nil
	}

	// Older files hold a bare array of ids.
	if trimmed[0] == '[' {
		var ids []any
		if err := json.Unmarshal(trimmed, &ids); err != nil {
			return nil, err
		}
		st := New("")
		for _, id := range ids {
			key, err := cast.ToStringE(id)
			if err != nil || key == "" {
				return nil, fmt.Errorf("invalid id %v", id)
			}
			st.Mark(key, "", time.Time{})
		}
		return st, nil
	}

	var st MonitorState
	if err := json.Unmarshal(trimmed, &st); err != nil {
		return nil, err
	}
	if st.Known == nil {
		st.Known = make(map[string]Seen)
	}
	return &st, nil
}
