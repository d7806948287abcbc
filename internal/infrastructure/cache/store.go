// Package cache provides TTL key/value stores used to cache external catalog reads.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by a store after Close
var ErrClosed = errors.New("cache: store closed")

// Store is a TTL key/value store. A miss is reported by ok == false, not by an error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
