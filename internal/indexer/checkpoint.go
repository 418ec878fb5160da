package indexer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"ammPool/internal/storage"
)

// Checkpoint tracks the last processed block for a set of pools.
type Checkpoint struct {
	LastProcessedBlock uint64    `json:"last_processed_block"`
	Pools              []string  `json:"pools"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Covers reports whether the checkpoint was written for exactly pools.
func (cp Checkpoint) Covers(pools []common.Address) bool {
	want := poolKeys(pools)
	if len(want) != len(cp.Pools) {
		return false
	}
	got := append([]string(nil), cp.Pools...)
	for i := range got {
		got[i] = strings.ToLower(got[i])
	}
	sort.Strings(got)
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

func poolKeys(pools []common.Address) []string {
	keys := make([]string, 0, len(pools))
	for _, pool := range pools {
		keys = append(keys, strings.ToLower(pool.Hex()))
	}
	sort.Strings(keys)
	return keys
}

// CheckpointStore persists checkpoints to disk. A disabled store loads
// nothing and drops saves.
type CheckpointStore struct {
	path    string
	enabled bool
}

func NewCheckpointStore(path string, enabled bool) *CheckpointStore {
	return &CheckpointStore{path: path, enabled: enabled && path != ""}
}

func (c *CheckpointStore) Load() (Checkpoint, bool, error) {
	if c == nil || !c.enabled {
		return Checkpoint{}, false, nil
	}
	var cp Checkpoint
	found, err := storage.ReadJSONFile(c.path, &cp)
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("load checkpoint: %w", err)
	}
	return cp, found, nil
}

func (c *CheckpointStore) Save(lastProcessed uint64, pools []common.Address) error {
	if c == nil || !c.enabled {
		return nil
	}
	err := storage.WriteJSONFile(c.path, Checkpoint{
		LastProcessedBlock: lastProcessed,
		Pools:              poolKeys(pools),
		UpdatedAt:          time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}
