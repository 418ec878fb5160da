package config

import (
	"github.com/spf13/pflag"
)

// DecodeConfig holds configuration for the decode command. Without an RPC
// URL, pool metadata comes from the PoolConfig fields.
type DecodeConfig struct {
	PoolConfig
	RPCURL   string
	In       string
	Out      string
	Errors   string
	LogLevel string
}

// LoadDecode merges config file, environment variables, and flags into DecodeConfig.
func LoadDecode(cfgFile string, flags *pflag.FlagSet) (DecodeConfig, error) {
	v, err := load(cfgFile, flags, withDefaults(poolDefaults, map[string]interface{}{
		"in":        "./data/logs.jsonl",
		"out":       "./data/pool_events.jsonl",
		"errors":    "./data/decode_errors.jsonl",
		"log-level": "info",
	}))
	if err != nil {
		return DecodeConfig{}, err
	}

	return DecodeConfig{
		PoolConfig: poolConfig(v),
		RPCURL:     v.GetString("rpc"),
		In:         v.GetString("in"),
		Out:        v.GetString("out"),
		Errors:     v.GetString("errors"),
		LogLevel:   v.GetString("log-level"),
	}, nil
}
