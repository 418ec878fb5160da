package aggregate

import (
	"context"
	"fmt"
	"time"

	"ammPool/internal/storage"
)

// StateStore persists the last processed event timestamp.
type StateStore interface {
	Load(ctx context.Context) (uint64, bool, error)
	Save(ctx context.Context, ts uint64) error
}

// FileStateStore stores progress in a local JSON file. Name keeps runs with
// different window sizes from sharing progress.
type FileStateStore struct {
	Path string
	Name string
}

type stateRecord struct {
	Name          string    `json:"name"`
	LastProcessed uint64    `json:"last_processed_ts"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (s *FileStateStore) Load(context.Context) (uint64, bool, error) {
	if s == nil || s.Path == "" {
		return 0, false, nil
	}
	var rec stateRecord
	found, err := storage.ReadJSONFile(s.Path, &rec)
	if err != nil || !found || rec.Name != s.Name {
		return 0, false, err
	}
	return rec.LastProcessed, true, nil
}

func (s *FileStateStore) Save(_ context.Context, ts uint64) error {
	if s == nil || s.Path == "" {
		return nil
	}
	return storage.WriteJSONFile(s.Path, stateRecord{
		Name:          s.Name,
		LastProcessed: ts,
		UpdatedAt:     time.Now().UTC(),
	})
}

// StateName returns the progress key of an aggregation run.
func StateName(windowSeconds uint64) string {
	return fmt.Sprintf("aggregate:%ds", windowSeconds)
}
