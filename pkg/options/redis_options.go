package options

import (
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*RedisOptions)(nil)

// RedisOptions configures the latest-state mirror.
type RedisOptions struct {
	// Addr of the Redis server. Empty disables the mirror.
	Addr     string `json:"addr" mapstructure:"addr"`
	Password string `json:"password" mapstructure:"password"`
	DB       int    `json:"db" mapstructure:"db"`
	PoolSize int    `json:"pool-size" mapstructure:"pool-size"`

	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`

	// TTL of the state keys. Zero keeps them forever.
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`
}

// NewRedisOptions creates a RedisOptions object with default parameters.
func NewRedisOptions() *RedisOptions {
	return &RedisOptions{
		PoolSize:  10,
		KeyPrefix: "truckhub",
	}
}

// Enabled reports whether a server is configured.
func (o *RedisOptions) Enabled() bool {
	return o != nil && o.Addr != ""
}

func (o *RedisOptions) Validate() []error {
	if !o.Enabled() {
		return nil
	}

	errors := []error{}

	if err := ValidateAddress(o.Addr); err != nil {
		errors = append(errors, err)
	}

	return errors
}

func (o *RedisOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Addr, "redis.addr", o.Addr, "Redis address (host:port) of the state mirror. Empty disables it.")
	fs.StringVar(&o.Password, "redis.password", o.Password, "Redis password.")
	fs.IntVar(&o.DB, "redis.db", o.DB, "Redis database.")
	fs.IntVar(&o.PoolSize, "redis.pool-size", o.PoolSize, "Redis connection pool size.")
	fs.StringVar(&o.KeyPrefix, "redis.key-prefix", o.KeyPrefix, "Prefix of every mirror key and channel.")
	fs.DurationVar(&o.TTL, "redis.ttl", o.TTL, "Expiry of mirrored state keys (0 keeps them).")
}
