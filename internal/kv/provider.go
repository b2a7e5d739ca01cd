// Package kv defines the flat key-value store the note collection lives in.
package kv

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// ErrKeyNotFound is returned by Get when a key holds no value.
var ErrKeyNotFound = errors.New("kv: key not found")

var keyRe = regexp.MustCompile(`^@?[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Provider is a durable string-keyed blob store. Set must replace the whole
// value atomically: a concurrent Get sees either the old or the new bytes.
type Provider interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// ValidateKey rejects keys that cannot be mapped safely onto every backend.
func ValidateKey(key string) error {
	if !keyRe.MatchString(key) || len(key) > 128 {
		return fmt.Errorf("kv: invalid key %q", key)
	}
	return nil
}
