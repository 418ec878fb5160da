package config

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"github.com/spf13/pflag"

	"ammPool/internal/amm"
)

// SimulateConfig holds configuration for the simulate command.
type SimulateConfig struct {
	PoolConfig
	InitialShares    string
	ToleranceDivisor string
	DrainGuard       bool

	Ops          string
	Out          string
	Errors       string
	Snapshot     string
	PGDSN        string
	BatchSize    int
	MaxRetries   int
	RetryBackoff time.Duration
	MetricsAddr  string
	LogLevel     string
}

// Params parses the pool constants.
func (c SimulateConfig) Params() (amm.Params, error) {
	params := amm.DefaultParams()
	params.DrainGuard = c.DrainGuard
	if c.InitialShares != "" {
		v, err := amm.ParseAmount(c.InitialShares)
		if err != nil {
			return amm.Params{}, fmt.Errorf("initial shares: %w", err)
		}
		params.InitialShares = v
	}
	if c.ToleranceDivisor != "" {
		v, err := uint256.FromDecimal(c.ToleranceDivisor)
		if err != nil {
			return amm.Params{}, fmt.Errorf("tolerance divisor: %w", err)
		}
		params.ToleranceDivisor = v
	}
	if params.InitialShares.IsZero() || params.ToleranceDivisor.IsZero() {
		return amm.Params{}, fmt.Errorf("initial shares and tolerance divisor must be greater than zero")
	}
	return params, nil
}

// LoadSimulate merges config file, environment variables, and flags into SimulateConfig.
func LoadSimulate(cfgFile string, flags *pflag.FlagSet) (SimulateConfig, error) {
	v, err := load(cfgFile, flags, withDefaults(poolDefaults, map[string]interface{}{
		"initial-shares":    "100e18",
		"tolerance-divisor": "1000",
		"drain-guard":       true,
		"out":               "./data/logs.jsonl",
		"errors":            "./data/op_errors.jsonl",
		"batch-size":        100,
		"max-retries":       3,
		"retry-backoff":     200 * time.Millisecond,
		"log-level":         "info",
	}))
	if err != nil {
		return SimulateConfig{}, err
	}

	return SimulateConfig{
		PoolConfig:       poolConfig(v),
		InitialShares:    v.GetString("initial-shares"),
		ToleranceDivisor: v.GetString("tolerance-divisor"),
		DrainGuard:       v.GetBool("drain-guard"),
		Ops:              v.GetString("ops"),
		Out:              v.GetString("out"),
		Errors:           v.GetString("errors"),
		Snapshot:         v.GetString("snapshot"),
		PGDSN:            v.GetString("pg-dsn"),
		BatchSize:        v.GetInt("batch-size"),
		MaxRetries:       v.GetInt("max-retries"),
		RetryBackoff:     v.GetDuration("retry-backoff"),
		MetricsAddr:      v.GetString("metrics-addr"),
		LogLevel:         v.GetString("log-level"),
	}, nil
}
