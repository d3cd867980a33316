// Package kv provides the persisted storage medium under the submission
// store: a key-value map of text blobs with single-key get and set.
//
// A Medium offers no transactions. Callers that need read-modify-write
// atomicity must serialize access themselves; a single Set is the commit
// point and either replaces the whole value or leaves it untouched.
package kv

import (
	"context"
	"errors"
)

// Medium is a durable key-value store of text blobs.
type Medium interface {
	// Get returns the value for key. ok is false when the key was never set.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set replaces the value for key.
	Set(ctx context.Context, key, value string) error
}

// Lister is implemented by media that can enumerate their keys.
type Lister interface {
	// Keys returns all keys starting with prefix in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// ErrClosed is returned by operations on a closed medium.
var ErrClosed = errors.New("kv: medium closed")
