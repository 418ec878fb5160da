package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"ammPool/internal/model"
)

type logID struct {
	block uint64
	tx    string
	index uint
}

// batchBuilder turns the logs of one block range into records. Removed and
// already seen logs are dropped, and each block timestamp is fetched once
// per range.
type batchBuilder struct {
	chainID   uint64
	seen      map[logID]struct{}
	timestamp func(ctx context.Context, block uint64) (uint64, error)
	logger    *zap.Logger
}

func (b *batchBuilder) build(ctx context.Context, logs []types.Log, ingestedAt time.Time) ([]model.LogRecord, error) {
	stamps := make(map[uint64]uint64)
	records := make([]model.LogRecord, 0, len(logs))
	for _, log := range logs {
		if log.Removed {
			b.logger.Debug("skip removed log", zap.Uint64("block_number", log.BlockNumber), zap.Uint("log_index", log.Index))
			continue
		}
		id := logID{block: log.BlockNumber, tx: log.TxHash.Hex(), index: log.Index}
		if _, ok := b.seen[id]; ok {
			continue
		}
		b.seen[id] = struct{}{}

		ts, ok := stamps[log.BlockNumber]
		if !ok {
			var err error
			if ts, err = b.timestamp(ctx, log.BlockNumber); err != nil {
				return nil, fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
			}
			stamps[log.BlockNumber] = ts
		}
		records = append(records, b.record(log, ts, ingestedAt))
	}
	return records, nil
}

func (b *batchBuilder) record(log types.Log, ts uint64, ingestedAt time.Time) model.LogRecord {
	topics := make([]string, len(log.Topics))
	for i, topic := range log.Topics {
		topics[i] = topic.Hex()
	}
	return model.LogRecord{
		ChainID:     b.chainID,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash.Hex(),
		TxHash:      log.TxHash.Hex(),
		TxIndex:     uint64(log.TxIndex),
		LogIndex:    uint64(log.Index),
		Address:     log.Address.Hex(),
		Topics:      topics,
		Data:        hexutil.Encode(log.Data),
		Timestamp:   ts,
		IngestedAt:  ingestedAt.Format(time.RFC3339Nano),
	}
}
