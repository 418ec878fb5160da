package config

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/spf13/pflag"

	"ammPool/internal/amm"
)

// QueryConfig holds configuration for the quote and reconcile commands.
type QueryConfig struct {
	PoolConfig
	RPCURL     string
	Block      uint64
	Snapshot   string
	PGDSN      string
	Amounts    []string
	DrainGuard bool
	LogLevel   string
}

// ParseAmounts parses the probe amounts.
func (c QueryConfig) ParseAmounts() ([]*uint256.Int, error) {
	out := make([]*uint256.Int, 0, len(c.Amounts))
	for _, raw := range c.Amounts {
		v, err := amm.ParseAmount(raw)
		if err != nil {
			return nil, fmt.Errorf("amount %q: %w", raw, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// LoadQuery merges config file, environment variables, and flags into QueryConfig.
func LoadQuery(cfgFile string, flags *pflag.FlagSet) (QueryConfig, error) {
	v, err := load(cfgFile, flags, withDefaults(poolDefaults, map[string]interface{}{
		"drain-guard": true,
		"log-level":   "info",
	}))
	if err != nil {
		return QueryConfig{}, err
	}

	return QueryConfig{
		PoolConfig: poolConfig(v),
		RPCURL:     v.GetString("rpc"),
		Block:      v.GetUint64("block"),
		Snapshot:   v.GetString("snapshot"),
		PGDSN:      v.GetString("pg-dsn"),
		Amounts:    getStringSlice(v, "amount"),
		DrainGuard: v.GetBool("drain-guard"),
		LogLevel:   v.GetString("log-level"),
	}, nil
}
