package store

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by [CredentialStore.Get] when the key is absent.
var ErrKeyNotFound = errors.New("key not found")

// KeyInstallationID is the create-once device installation ID. The session
// client's complete wipe allow-lists it, so it survives every logout.
const KeyInstallationID = "installation_id"

// CredentialStore is the asynchronous key-value persistence primitive the
// session client depends on. Implementations must be safe for concurrent
// use.
//
// Remove and MultiRemove are idempotent: removing an absent key is not an
// error. MultiSet writes all pairs or none.
type CredentialStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	MultiSet(ctx context.Context, pairs map[string]string) error
	Remove(ctx context.Context, key string) error
	MultiRemove(ctx context.Context, keys []string) error
	Keys(ctx context.Context) ([]string, error)
}
