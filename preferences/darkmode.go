// Package preferences stores user display preferences.
package preferences

import (
	"context"
	"errors"
	"strconv"

	apperrors "github.com/autorent/autorent-platform/pkg/errors"
	"github.com/autorent/autorent-platform/pkg/logging"
	"github.com/autorent/autorent-platform/pkg/storage"
)

// Store reads and writes preferences.
type Store struct {
	kv     storage.Store
	logger *logging.Logger
}

// NewStore creates a preference store.
func NewStore(kv storage.Store, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Store{kv: kv, logger: logger.WithComponent("preferences")}
}

// DarkMode reports whether dark mode is on. Anything but "true" is off.
func (s *Store) DarkMode(ctx context.Context) bool {
	val, err := s.kv.Get(ctx, storage.KeyDarkMode)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			s.logger.WithError(apperrors.PersistenceUnavailable(err, "read", storage.KeyDarkMode)).
				Warn("defaulting to light mode")
		}
		return false
	}
	return val == "true"
}

// SetDarkMode stores the dark mode preference.
func (s *Store) SetDarkMode(ctx context.Context, on bool) error {
	if err := s.kv.Set(ctx, storage.KeyDarkMode, strconv.FormatBool(on)); err != nil {
		return apperrors.PersistenceUnavailable(err, "write", storage.KeyDarkMode)
	}
	return nil
}

// ToggleDarkMode flips the preference and returns the new value.
func (s *Store) ToggleDarkMode(ctx context.Context) (bool, error) {
	next := !s.DarkMode(ctx)
	if err := s.SetDarkMode(ctx, next); err != nil {
		return false, err
	}
	return next, nil
}
