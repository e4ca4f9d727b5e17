package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
// Exchanges maps an exchange label to its monitored addresses and can only
// come from the config file.
type Config struct {
	RPCURL       string
	TokenAddress string
	PGDSN        string
	Listen       string
	Exchanges    map[string][]string
	SubBuffer    int
	RetryBackoff time.Duration
	MaxBackoff   time.Duration
	LogLevel     string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NETFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen", ":3030")
	v.SetDefault("sub-buffer", 256)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("retry-max-backoff", 30*time.Second)
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
		RPCURL:       v.GetString("rpc-url"),
		TokenAddress: v.GetString("token-address"),
		PGDSN:        v.GetString("pg-dsn"),
		Listen:       v.GetString("listen"),
		Exchanges:    getExchanges(v),
		SubBuffer:    v.GetInt("sub-buffer"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		MaxBackoff:   v.GetDuration("retry-max-backoff"),
		LogLevel:     v.GetString("log-level"),
	}

	return cfg, nil
}

func getExchanges(v *viper.Viper) map[string][]string {
	raw := v.GetStringMapStringSlice("exchanges")
	if len(raw) == 0 {
		return nil
	}

	out := make(map[string][]string, len(raw))
	for label, addresses := range raw {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		cleaned := cleanStrings(addresses)
		if len(cleaned) == 0 {
			continue
		}
		out[label] = cleaned
	}
	if len(out) == 0 {
		return nil
	}
	return out
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
