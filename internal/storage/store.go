// Package storage keeps per-browser UI state server side. A Store is scoped
// by browser session id; the server uses one store for session-scoped data
// (the pending booking, seat selections) and one for persistent data (the
// credential, the current user, the post-login redirect).
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Get when the key does not exist.
	ErrNotFound = errors.New("storage: not found")
	// ErrCorrupt is returned by GetJSON when the stored value does not decode.
	ErrCorrupt = errors.New("storage: corrupt entry")
)

// Store is a string key/value store scoped by session id.
type Store interface {
	Get(ctx context.Context, sid, key string) (string, error)
	Set(ctx context.Context, sid, key, value string) error
	// Delete removes key and reports whether it existed.
	Delete(ctx context.Context, sid, key string) (bool, error)
	// Take returns and removes key in one step. Two concurrent Takes never
	// both see the value.
	Take(ctx context.Context, sid, key string) (string, error)
	// Clear removes every key of the session.
	Clear(ctx context.Context, sid string) error
}

// GetJSON decodes the value under key into out.
func GetJSON(ctx context.Context, s Store, sid, key string, out any) error {
	raw, err := s.Get(ctx, sid, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, sid, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", key, err)
	}
	return s.Set(ctx, sid, key, string(b))
}
