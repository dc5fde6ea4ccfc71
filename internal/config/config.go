package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL         string
	ChainID        int64
	Factory        string
	InitCodeHash   string
	WrappedNative  string
	Custody        string
	FeeNumerator   int64
	FeeDenominator int64
	RewardNum      int64
	RewardDen      int64
	RewardToken    string
	PGDSN          string
	AuditLog       string
	LogLevel       string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("STAKELEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("chain-id", int64(1))
	v.SetDefault("factory", "0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f")
	v.SetDefault("init-code-hash", "0x96e8ac4277198ff8b6f785478aa9a39f403cb768dd02cbe8f0a221686a110e04")
	v.SetDefault("wrapped-native", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	v.SetDefault("fee-numerator", int64(997))
	v.SetDefault("fee-denominator", int64(1000))
	v.SetDefault("reward-numerator", int64(1))
	v.SetDefault("reward-denominator", int64(10))
	v.SetDefault("audit-log", "./data/stake_events.jsonl")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:         v.GetString("rpc"),
		ChainID:        v.GetInt64("chain-id"),
		Factory:        v.GetString("factory"),
		InitCodeHash:   v.GetString("init-code-hash"),
		WrappedNative:  v.GetString("wrapped-native"),
		Custody:        v.GetString("custody"),
		FeeNumerator:   v.GetInt64("fee-numerator"),
		FeeDenominator: v.GetInt64("fee-denominator"),
		RewardNum:      v.GetInt64("reward-numerator"),
		RewardDen:      v.GetInt64("reward-denominator"),
		RewardToken:    v.GetString("reward-token"),
		PGDSN:          v.GetString("pg-dsn"),
		AuditLog:       v.GetString("audit-log"),
		LogLevel:       v.GetString("log-level"),
	}

	return cfg, nil
}
