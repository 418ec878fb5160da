package snapshot

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"ammPool/internal/model"
	"ammPool/internal/storage/postgres"
)

// DBStore keeps snapshots in the pool_snapshots table.
type DBStore struct {
	Store *postgres.Store
}

func (s *DBStore) Load(ctx context.Context, pool common.Address) (model.PoolSnapshot, bool, error) {
	if s == nil || s.Store == nil {
		return model.PoolSnapshot{}, false, nil
	}
	return s.Store.LoadSnapshot(ctx, pool.Hex())
}

func (s *DBStore) Save(ctx context.Context, snap model.PoolSnapshot) error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.SaveSnapshot(ctx, snap)
}
