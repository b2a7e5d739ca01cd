package kv

import (
	"context"
	"fmt"
)

// Backend drivers accepted by Open.
const (
	DriverFS     = "fs"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Driver string
	Dir    string // fs
	Path   string // sqlite
	Redis  RedisOptions
}

// Open builds the Provider named by opts.Driver.
func Open(ctx context.Context, opts Options) (Provider, error) {
	switch opts.Driver {
	case DriverFS:
		return NewFS(opts.Dir)
	case DriverSQLite:
		return OpenSQLite(opts.Path)
	case DriverRedis:
		return NewRedis(ctx, opts.Redis)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("kv: unknown driver %q", opts.Driver)
	}
}
