package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/safar/flowerstore/internal/config"
	"github.com/safar/flowerstore/internal/database"
)

// Keys shared by the customer and admin front ends. The admin aliases exist so
// either front end can read a session written by the other.
const (
	KeyAccessToken       = "accessToken"
	KeyAdminToken        = "adminToken"
	KeyRefreshToken      = "refreshToken"
	KeyUser              = "user"
	KeyAdminUser         = "adminUser"
	KeyPreferredLanguage = "preferredLanguage"
	KeyCartItems         = "cartItems"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("storage key not found")

// Store is a persistent string key/value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Open selects the backend named by cfg.Storage.Driver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return NewMemory(), nil
	case "file":
		return NewFile(cfg.Storage.Path)
	case "postgres":
		db, err := database.NewConnection(&cfg.Database)
		if err != nil {
			return nil, err
		}
		return NewPostgres(db, cfg.Storage.Namespace), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
