package fake

import (
	"context"
	"errors"
	"testing"
)

func TestSettingsStore_GetDefault(t *testing.T) {
	s := NewSettingsStore()

	got, err := s.Get(context.Background(), "compute.layer_routing", "{}")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "{}" {
		t.Errorf("Get = %q, want default", got)
	}
}

func TestSettingsStore_SetThenGet(t *testing.T) {
	s := NewSettingsStore()
	ctx := context.Background()

	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "k", "")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "v" {
		t.Errorf("Get = %q", got)
	}
	if v, ok := s.Value("k"); !ok || v != "v" {
		t.Errorf("Value = %q, %v", v, ok)
	}
}

func TestSettingsStore_ErrHooks(t *testing.T) {
	s := NewSettingsStore()
	boom := errors.New("boom")
	s.SetErr = func(context.Context, string, string) error { return boom }

	if err := s.Set(context.Background(), "k", "v"); !errors.Is(err, boom) {
		t.Errorf("Set err = %v, want boom", err)
	}
}
