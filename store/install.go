package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// EnsureInstallationID returns the device installation ID, generating and
// persisting a fresh UUID on first call. The ID survives complete wipes; the
// wipe allow-lists [KeyInstallationID].
func EnsureInstallationID(ctx context.Context, s CredentialStore) (string, error) {
	id, err := s.Get(ctx, KeyInstallationID)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		return "", err
	}

	id = uuid.NewString()
	if err := s.Set(ctx, KeyInstallationID, id); err != nil {
		return "", err
	}
	return id, nil
}
