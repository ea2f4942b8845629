package config

import (
	"time"

	"github.com/spf13/viper"
)

// CacheConfig defines settings for the response cache middleware.  Only GET
// responses are cached; writes invalidate every entry of their resource.
// MaxBodyBytes caps the size of a cached body.
type CacheConfig struct {
	Enabled      bool          `mapstructure:"cache_enabled"`
	TTL          time.Duration `mapstructure:"cache_ttl"`
	Prefix       string        `mapstructure:"cache_prefix"`
	MaxBodyBytes int           `mapstructure:"cache_max_body_bytes"`
}

func setCacheDefaults(v *viper.Viper) {
	v.SetDefault("cache_enabled", true)
	v.SetDefault("cache_ttl", "30s")
	v.SetDefault("cache_prefix", "cache")
	v.SetDefault("cache_max_body_bytes", 1<<20)
}
