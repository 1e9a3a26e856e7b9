package store

import "time"

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG PGConfig
	KV KVConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int
}

// KVConfig configures the shared redis key/value store
// OpTimeout bounds every single call; the fail-open policies in cache and
// ratelimit treat a timeout like any other store failure
type KVConfig struct {
	Enabled   bool
	Addr      string
	DB        int
	Password  string
	OpTimeout time.Duration
}
