package database

import (
	"context"
	"time"
)

// Timeouts applied to individual store operations.
const (
	DefaultQueryTimeout = 5 * time.Second
	DefaultWriteTimeout = 10 * time.Second
	MigrateTimeout      = 2 * time.Minute
)

// QueryContext bounds a read query.
func QueryContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultQueryTimeout)
}

// WriteContext bounds an INSERT/UPDATE/DELETE.
func WriteContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultWriteTimeout)
}
