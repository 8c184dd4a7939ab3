// Package kvstore is the client's local key-value store for the session and
// user preferences.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("kvstore: key not found")

// Well-known keys.
const (
	KeyToken             = "jwtToken"
	KeyUser              = "user"
	KeyAvatar            = "user_avatar"
	KeyTheme             = "app_theme"
	KeyLanguage          = "app_language"
	KeyNotificationSound = "notification_sound"
)

// Store is implemented by MemoryStore and RedisStore.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, keys ...string) error
	// Clear removes every key owned by the store.
	Clear(ctx context.Context) error
}

// GetJSON decodes the value under key into v.
func GetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SetJSON stores v encoded as JSON under key.
func SetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(raw))
}

// GetOr returns the value under key, or fallback when it is absent or unreadable.
func GetOr(ctx context.Context, s Store, key, fallback string) string {
	v, err := s.Get(ctx, key)
	if err != nil || v == "" {
		return fallback
	}
	return v
}
