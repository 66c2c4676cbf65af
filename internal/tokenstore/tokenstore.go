// Package tokenstore persists session credentials and the cached user under
// the key aliases read by both the customer and the admin front ends.
package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/safar/flowerstore/internal/models"
	"github.com/safar/flowerstore/internal/storage"
)

var ErrNilUser = errors.New("user is nil")

var sessionKeys = []string{
	storage.KeyAccessToken,
	storage.KeyAdminToken,
	storage.KeyRefreshToken,
	storage.KeyUser,
	storage.KeyAdminUser,
}

// Store has no notion of expiry; the API decides whether a token is valid.
type Store struct {
	storage storage.Store
}

func New(st storage.Store) *Store {
	return &Store{storage: st}
}

// AccessToken returns "" when no session is stored.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	return s.first(ctx, storage.KeyAccessToken, storage.KeyAdminToken)
}

func (s *Store) RefreshToken(ctx context.Context) (string, error) {
	return s.first(ctx, storage.KeyRefreshToken)
}

func (s *Store) SetTokens(ctx context.Context, access, refresh string) error {
	for _, key := range []string{storage.KeyAccessToken, storage.KeyAdminToken} {
		if err := s.storage.Set(ctx, key, access); err != nil {
			return fmt.Errorf("store access token: %w", err)
		}
	}
	if refresh != "" {
		if err := s.storage.Set(ctx, storage.KeyRefreshToken, refresh); err != nil {
			return fmt.Errorf("store refresh token: %w", err)
		}
	}
	return nil
}

// ClearTokens removes every token alias and the cached user.
func (s *Store) ClearTokens(ctx context.Context) error {
	if err := s.storage.Delete(ctx, sessionKeys...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// User returns nil when no user is cached.
func (s *Store) User(ctx context.Context) (*models.User, error) {
	raw, err := s.first(ctx, storage.KeyUser, storage.KeyAdminUser)
	if err != nil || raw == "" {
		return nil, err
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("decode cached user: %w", err)
	}
	return &user, nil
}

// SetUser writes the admin alias only for admin roles, and drops a stale
// admin alias otherwise.
func (s *Store) SetUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return ErrNilUser
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	if err := s.storage.Set(ctx, storage.KeyUser, string(data)); err != nil {
		return fmt.Errorf("store user: %w", err)
	}

	if user.RoleName.IsAdmin() {
		err = s.storage.Set(ctx, storage.KeyAdminUser, string(data))
	} else {
		err = s.storage.Delete(ctx, storage.KeyAdminUser)
	}
	if err != nil {
		return fmt.Errorf("store admin user: %w", err)
	}
	return nil
}

func (s *Store) first(ctx context.Context, keys ...string) (string, error) {
	for _, key := range keys {
		value, err := s.storage.Get(ctx, key)
		if errors.Is(err, storage.ErrNotFound) || (err == nil && value == "") {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("read %s: %w", key, err)
		}
		return value, nil
	}
	return "", nil
}
