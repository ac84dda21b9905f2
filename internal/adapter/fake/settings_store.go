package fake

import (
	"context"
	"sync"

	"corral/internal/compute"
)

var _ compute.SettingsStore = (*SettingsStore)(nil)

// SettingsStore is an in-memory implementation of compute.SettingsStore.
type SettingsStore struct {
	CallRecorder
	mu     sync.Mutex
	values map[string]string

	GetErr func(ctx context.Context, key string) error
	SetErr func(ctx context.Context, key, value string) error
}

func NewSettingsStore() *SettingsStore {
	return &SettingsStore{values: make(map[string]string)}
}

func (s *SettingsStore) Get(ctx context.Context, key, def string) (string, error) {
	s.record("Get", key)
	if s.GetErr != nil {
		if err := s.GetErr(ctx, key); err != nil {
			return "", err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.values[key]; ok {
		return v, nil
	}
	return def, nil
}

func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	s.record("Set", key, value)
	if s.SetErr != nil {
		if err := s.SetErr(ctx, key, value); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

// Seed stores a value without recording a call.
func (s *SettingsStore) Seed(key, value string) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
}

// Value reports the stored value for key.
func (s *SettingsStore) Value(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}
