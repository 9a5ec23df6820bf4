// Package production provides production integrations: persistence, event publishing, visualization.
package production

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/comalice/pjaxnav/internal/browser"
	"github.com/comalice/pjaxnav/internal/primitives"
)

// SessionSnapshot is the saved state of one browsing session: the browser
// history stack and the navigation ledger.
type SessionSnapshot struct {
	SessionID string             `json:"sessionId" yaml:"sessionId"`
	History   browser.Snapshot   `json:"history" yaml:"history"`
	Entries   []primitives.Entry `json:"entries" yaml:"entries"`
	SavedAt   time.Time          `json:"savedAt" yaml:"savedAt"`
}

// Persister stores session snapshots.
type Persister interface {
	Save(ctx context.Context, snapshot SessionSnapshot) error
	Load(ctx context.Context, sessionID string) (SessionSnapshot, error)
}

// NewPersister picks the persister for format ("json" or "yaml").
func NewPersister(format, dir string) (Persister, error) {
	switch format {
	case "", "yaml", "yml":
		return NewYAMLPersister(dir)
	case "json":
		return NewJSONPersister(dir)
	default:
		return nil, fmt.Errorf("unknown history format %q", format)
	}
}

// JSONPersister is a file-based persister using JSON serialization.
type JSONPersister struct {
	dir string
}

// NewJSONPersister creates a JSONPersister, ensuring the directory exists.
func NewJSONPersister(dir string) (*JSONPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &JSONPersister{dir: dir}, nil
}

func (p *JSONPersister) Save(ctx context.Context, snapshot SessionSnapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}

	fn := filepath.Join(p.dir, snapshot.SessionID+".json")
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fn, err)
	}
	return nil
}

func (p *JSONPersister) Load(ctx context.Context, sessionID string) (SessionSnapshot, error) {
	fn := filepath.Join(p.dir, sessionID+".json")
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return SessionSnapshot{}, fmt.Errorf("session %q: %w", sessionID, os.ErrNotExist)
		}
		return SessionSnapshot{}, fmt.Errorf("read %s: %w", fn, err)
	}

	var snapshot SessionSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return SessionSnapshot{}, fmt.Errorf("json unmarshal: %w", err)
	}
	snapshot.SessionID = sessionID
	return snapshot, nil
}

// YAMLPersister is a file-based persister using YAML serialization.
type YAMLPersister struct {
	dir string
}

// NewYAMLPersister creates a YAMLPersister, ensuring the directory exists.
func NewYAMLPersister(dir string) (*YAMLPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &YAMLPersister{dir: dir}, nil
}

func (p *YAMLPersister) Save(ctx context.Context, snapshot SessionSnapshot) error {
	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}

	fn := filepath.Join(p.dir, snapshot.SessionID+".yaml")
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fn, err)
	}
	return nil
}

func (p *YAMLPersister) Load(ctx context.Context, sessionID string) (SessionSnapshot, error) {
	fn := filepath.Join(p.dir, sessionID+".yaml")
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return SessionSnapshot{}, fmt.Errorf("session %q: %w", sessionID, os.ErrNotExist)
		}
		return SessionSnapshot{}, fmt.Errorf("read %s: %w", fn, err)
	}

	var snapshot SessionSnapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return SessionSnapshot{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	snapshot.SessionID = sessionID
	if len(snapshot.History.Entries) == 0 {
		return SessionSnapshot{}, fmt.Errorf("session %q: empty history", sessionID)
	}
	return snapshot, nil
}
