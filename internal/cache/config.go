package cache

import (
	"fmt"
	"time"
)

const (
	// DefaultTTL is how long a snapshot is considered fresh.
	DefaultTTL = 30 * time.Minute
	// DefaultMaxSizeBytes is the default snapshot byte ceiling (10 MiB).
	DefaultMaxSizeBytes int64 = 10 << 20
	// MaxSizeBytesCeiling is the hard upper bound no configuration may exceed (30 MiB).
	MaxSizeBytesCeiling int64 = 30 << 20
)

// Config holds the store limits. Immutable after construction; NewStore
// validates it eagerly.
type Config struct {
	TTL          time.Duration `json:"ttlMs"`
	MaxSizeBytes int64         `json:"maxSizeBytes"`
}

// DefaultConfig returns the standard limits.
func DefaultConfig() Config {
	return Config{TTL: DefaultTTL, MaxSizeBytes: DefaultMaxSizeBytes}
}

func (c Config) withDefaults() Config {
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	if c.MaxSizeBytes == 0 {
		c.MaxSizeBytes = DefaultMaxSizeBytes
	}
	return c
}

func (c Config) validate() error {
	if c.TTL < 0 {
		return fmt.Errorf("ttl must be positive, got %v", c.TTL)
	}
	if c.MaxSizeBytes < 0 {
		return fmt.Errorf("max size must be positive, got %d", c.MaxSizeBytes)
	}
	if c.MaxSizeBytes > MaxSizeBytesCeiling {
		return fmt.Errorf("max size %d exceeds hard ceiling %d", c.MaxSizeBytes, MaxSizeBytesCeiling)
	}
	return nil
}
