package snapshot

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"ammPool/internal/model"
	"ammPool/internal/storage"
)

// FileStore keeps the snapshot of one pool in a local JSON file.
type FileStore struct {
	Path string
}

// Load fails when the file holds another pool's snapshot.
func (s *FileStore) Load(_ context.Context, pool common.Address) (model.PoolSnapshot, bool, error) {
	if s == nil || s.Path == "" {
		return model.PoolSnapshot{}, false, nil
	}
	var snap model.PoolSnapshot
	found, err := storage.ReadJSONFile(s.Path, &snap)
	if err != nil || !found {
		return model.PoolSnapshot{}, false, err
	}
	if !strings.EqualFold(snap.Address, pool.Hex()) {
		return model.PoolSnapshot{}, false, fmt.Errorf("snapshot %s belongs to pool %s", s.Path, snap.Address)
	}
	return snap, true, nil
}

func (s *FileStore) Save(_ context.Context, snap model.PoolSnapshot) error {
	if s == nil || s.Path == "" {
		return nil
	}
	return storage.WriteJSONFile(s.Path, snap)
}
