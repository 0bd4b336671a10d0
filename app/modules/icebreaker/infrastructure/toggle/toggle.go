package icebreakertoggle

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	icebreakerdb "github.com/Black-And-White-Club/party-companion/app/modules/icebreaker/infrastructure/repositories"
)

// SettingKey is the app_settings key holding the toggle.
const SettingKey = "icebreaker_enabled"

// Store holds whether the icebreaker game is open to players.
type Store interface {
	Enabled(ctx context.Context) (bool, error)
	SetEnabled(ctx context.Context, enabled bool) error
	// Persistent reports whether the value survives a restart.
	Persistent() bool
}

// MemoryStore keeps the toggle in process memory. It resets to its default on restart.
type MemoryStore struct {
	enabled atomic.Bool
}

func NewMemoryStore(defaultEnabled bool) *MemoryStore {
	s := &MemoryStore{}
	s.enabled.Store(defaultEnabled)
	return s
}

func (s *MemoryStore) Enabled(context.Context) (bool, error) {
	return s.enabled.Load(), nil
}

func (s *MemoryStore) SetEnabled(_ context.Context, enabled bool) error {
	s.enabled.Store(enabled)
	return nil
}

func (s *MemoryStore) Persistent() bool { return false }

// DBStore keeps the toggle in app_settings. A missing row reads as the default.
type DBStore struct {
	repo           icebreakerdb.Repository
	defaultEnabled bool
}

func NewDBStore(repo icebreakerdb.Repository, defaultEnabled bool) *DBStore {
	return &DBStore{repo: repo, defaultEnabled: defaultEnabled}
}

func (s *DBStore) Enabled(ctx context.Context) (bool, error) {
	v, err := s.repo.GetSetting(ctx, nil, SettingKey)
	if err != nil {
		if errors.Is(err, icebreakerdb.ErrNotFound) {
			return s.defaultEnabled, nil
		}
		return false, err
	}
	enabled, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s setting %q: %w", SettingKey, v, err)
	}
	return enabled, nil
}

func (s *DBStore) SetEnabled(ctx context.Context, enabled bool) error {
	return s.repo.PutSetting(ctx, nil, SettingKey, strconv.FormatBool(enabled))
}

func (s *DBStore) Persistent() bool { return true }
