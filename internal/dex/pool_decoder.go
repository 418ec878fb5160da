package dex

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"ammPool/internal/model"
)

// PoolDecoder decodes constant-product pool events.
type PoolDecoder struct {
	poolABI     abi.ABI
	topicToName map[string]string
}

// NewPoolDecoder builds a pool decoder.
func NewPoolDecoder() (*PoolDecoder, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return nil, err
	}

	topicToName := make(map[string]string, 3)
	for _, name := range []string{model.EventSwap, model.EventDeposit, model.EventWithdraw} {
		topicToName[strings.ToLower(poolABI.Events[name].ID.Hex())] = name
	}

	return &PoolDecoder{
		poolABI:     poolABI,
		topicToName: topicToName,
	}, nil
}

// Topics returns the topic0 hashes of every event the decoder understands.
func (d *PoolDecoder) Topics() []common.Hash {
	return []common.Hash{
		d.poolABI.Events[model.EventSwap].ID,
		d.poolABI.Events[model.EventDeposit].ID,
		d.poolABI.Events[model.EventWithdraw].ID,
	}
}

// CanDecode checks if the topic0 is supported.
func (d *PoolDecoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into a PoolEvent.
func (d *PoolDecoder) Decode(log model.LogRecord, ctx DecodeContext) (*model.PoolEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}

	if !common.IsHexAddress(log.Address) {
		return nil, fmt.Errorf("invalid pool address: %s", log.Address)
	}
	poolMeta, err := getPoolMeta(ctx, common.HexToAddress(log.Address))
	if err != nil {
		return nil, err
	}

	var decoded interface{}
	switch name {
	case model.EventSwap:
		decoded, err = d.decodeSwap(log)
	case model.EventDeposit, model.EventWithdraw:
		decoded, err = d.decodeLiquidity(name, log)
	}
	if err != nil {
		return nil, err
	}

	return &model.PoolEvent{
		ChainID:     log.ChainID,
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash,
		LogIndex:    log.LogIndex,
		Address:     log.Address,
		EventName:   name,
		Timestamp:   log.Timestamp,
		Decoded:     decoded,
		PoolMeta:    poolMeta,
		Raw:         &model.RawLogRef{Topic0: log.Topics[0], Data: log.Data},
	}, nil
}

func getPoolMeta(ctx DecodeContext, pool common.Address) (model.PoolMeta, error) {
	if ctx.PoolMetaCache != nil {
		if meta, ok := ctx.PoolMetaCache.Get(pool); ok {
			return meta, nil
		}
	}
	if ctx.Chain == nil {
		return model.PoolMeta{}, fmt.Errorf("no metadata for pool %s and no chain client", pool.Hex())
	}

	callCtx := ctx.Context
	if callCtx == nil {
		callCtx = context.Background()
	}
	meta, err := FetchPoolMeta(callCtx, ctx.Chain, pool, ctx.TokenMetaCache, ctx.Logger)
	if err != nil {
		return model.PoolMeta{}, err
	}
	if ctx.PoolMetaCache != nil {
		ctx.PoolMetaCache.Set(pool, meta)
	}
	return meta, nil
}

func (d *PoolDecoder) decodeSwap(log model.LogRecord) (model.SwapEventData, error) {
	event := d.poolABI.Events[model.EventSwap]
	if len(log.Topics) != 1 {
		return model.SwapEventData{}, fmt.Errorf("expected 1 topic, got %d", len(log.Topics))
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.SwapEventData{}, err
	}
	if len(values) != 8 {
		return model.SwapEventData{}, fmt.Errorf("unexpected swap values: %d", len(values))
	}

	initiator, err := asAddress(values[0])
	if err != nil {
		return model.SwapEventData{}, fmt.Errorf("initiator: %w", err)
	}
	assetIn, err := asAddress(values[1])
	if err != nil {
		return model.SwapEventData{}, fmt.Errorf("asset in: %w", err)
	}
	assetOut, err := asAddress(values[3])
	if err != nil {
		return model.SwapEventData{}, fmt.Errorf("asset out: %w", err)
	}
	amounts, err := asBigInts(values[2], values[4], values[5], values[6], values[7])
	if err != nil {
		return model.SwapEventData{}, err
	}

	return model.SwapEventData{
		Initiator:     initiator.Hex(),
		AssetIn:       assetIn.Hex(),
		AmountIn:      amounts[0].String(),
		AssetOut:      assetOut.Hex(),
		AmountOut:     amounts[1].String(),
		Reserve1After: amounts[2].String(),
		Reserve2After: amounts[3].String(),
		Timestamp:     amounts[4].Uint64(),
	}, nil
}

func (d *PoolDecoder) decodeLiquidity(name string, log model.LogRecord) (model.LiquidityEventData, error) {
	event := d.poolABI.Events[name]
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.LiquidityEventData{}, err
	}

	var indexed struct {
		Provider common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.LiquidityEventData{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.LiquidityEventData{}, err
	}
	if len(values) != 7 {
		return model.LiquidityEventData{}, fmt.Errorf("unexpected %s values: %d", strings.ToLower(name), len(values))
	}
	amounts, err := asBigInts(values...)
	if err != nil {
		return model.LiquidityEventData{}, err
	}

	return model.LiquidityEventData{
		Provider:      indexed.Provider.Hex(),
		Amount1:       amounts[0].String(),
		Amount2:       amounts[1].String(),
		Shares:        amounts[2].String(),
		Reserve1After: amounts[3].String(),
		Reserve2After: amounts[4].String(),
		TotalShares:   amounts[5].String(),
		Timestamp:     amounts[6].Uint64(),
	}, nil
}

func parseIndexedTopics(event abi.Event, topics []string) ([]common.Hash, error) {
	indexedCount := len(indexedArguments(event.Inputs))
	if len(topics) != indexedCount+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", indexedCount+1, len(topics))
	}
	out := make([]common.Hash, 0, indexedCount)
	for _, topic := range topics[1:] {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(event abi.Event, dataHex string) ([]interface{}, error) {
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}

func asBigInts(values ...interface{}) ([]*big.Int, error) {
	out := make([]*big.Int, 0, len(values))
	for i, value := range values {
		v, err := asBigInt(value)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
