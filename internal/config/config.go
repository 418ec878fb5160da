package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. AMM_PG_DSN.
const EnvPrefix = "AMM"

// PoolConfig identifies a pool and its two assets.
type PoolConfig struct {
	ChainID uint64
	Pool    string
	Asset1  string
	Asset2  string
	Symbol1 string
	Symbol2 string
}

// Addresses parses the pool and asset addresses.
func (p PoolConfig) Addresses() (pool, asset1, asset2 common.Address, err error) {
	for _, f := range []struct {
		name, value string
		out         *common.Address
	}{
		{"pool", p.Pool, &pool},
		{"asset1", p.Asset1, &asset1},
		{"asset2", p.Asset2, &asset2},
	} {
		if !common.IsHexAddress(f.value) {
			return common.Address{}, common.Address{}, common.Address{}, fmt.Errorf("invalid %s address: %q", f.name, f.value)
		}
		*f.out = common.HexToAddress(f.value)
	}
	return pool, asset1, asset2, nil
}

// load merges defaults, config file, environment variables and flags. An
// explicit cfgFile must exist; otherwise ./config.* is read when present.
func load(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func poolConfig(v *viper.Viper) PoolConfig {
	return PoolConfig{
		ChainID: v.GetUint64("chain-id"),
		Pool:    v.GetString("pool"),
		Asset1:  v.GetString("asset1"),
		Asset2:  v.GetString("asset2"),
		Symbol1: v.GetString("symbol1"),
		Symbol2: v.GetString("symbol2"),
	}
}

var poolDefaults = map[string]interface{}{
	"chain-id": uint64(31337),
	"pool":     "0x00000000000000000000000000000000000a3300",
	"asset1":   "0x00000000000000000000000000000000000a3301",
	"asset2":   "0x00000000000000000000000000000000000a3302",
	"symbol1":  "TK1",
	"symbol2":  "TK2",
}

func withDefaults(sets ...map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, set := range sets {
		for k, v := range set {
			out[k] = v
		}
	}
	return out
}

// IndexConfig holds configuration for the index command.
type IndexConfig struct {
	RPCURL            string
	FromBlock         uint64
	ToBlock           uint64
	Pools             []string
	BatchSize         uint64
	Out               string
	PGDSN             string
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	LogLevel          string
}

// LoadIndex merges config file, environment variables, and flags into IndexConfig.
func LoadIndex(cfgFile string, flags *pflag.FlagSet) (IndexConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"batch-size":         uint64(2000),
		"out":                "./data/logs.jsonl",
		"checkpoint":         "./data/checkpoint.json",
		"checkpoint-enabled": true,
		"max-retries":        5,
		"retry-backoff":      500 * time.Millisecond,
		"log-level":          "info",
	})
	if err != nil {
		return IndexConfig{}, err
	}

	return IndexConfig{
		RPCURL:            v.GetString("rpc"),
		FromBlock:         v.GetUint64("from"),
		ToBlock:           v.GetUint64("to"),
		Pools:             getStringSlice(v, "pool"),
		BatchSize:         v.GetUint64("batch-size"),
		Out:               v.GetString("out"),
		PGDSN:             v.GetString("pg-dsn"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		LogLevel:          v.GetString("log-level"),
	}, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
