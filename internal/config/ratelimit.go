package config

import (
	"time"

	"github.com/spf13/viper"
)

// RateLimitConfig drives the Redis backed limiter: Rate requests per
// Period with bursts up to Burst.  KeyStrategy picks what identifies a
// caller (ip, client, ip_route, client_route).
type RateLimitConfig struct {
	Enabled     bool          `mapstructure:"rate_limit_enabled"`
	Rate        int           `mapstructure:"rate_limit_rate"`
	Burst       int           `mapstructure:"rate_limit_burst"`
	Period      time.Duration `mapstructure:"rate_limit_period"`
	KeyStrategy string        `mapstructure:"rate_limit_key_strategy"`
	Prefix      string        `mapstructure:"rate_limit_prefix"`
}

func setRateLimitDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit_enabled", true)
	v.SetDefault("rate_limit_rate", 60)
	v.SetDefault("rate_limit_burst", 60)
	v.SetDefault("rate_limit_period", "1m")
	v.SetDefault("rate_limit_key_strategy", "client_route")
	v.SetDefault("rate_limit_prefix", "rl")
}

func (c *RateLimitConfig) normalize() {
	if c.Rate < 1 {
		c.Rate = 1
	}
	if c.Burst < c.Rate {
		c.Burst = c.Rate
	}
	if c.Period <= 0 {
		c.Period = time.Minute
	}
	if c.Prefix == "" {
		c.Prefix = "rl"
	}
}
