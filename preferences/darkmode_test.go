package preferences

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/autorent/autorent-platform/pkg/errors"
	"github.com/autorent/autorent-platform/pkg/storage"
	"github.com/autorent/autorent-platform/pkg/testing/mocks"
)

func TestDarkMode(t *testing.T) {
	ctx := context.Background()
	kv := mocks.NewKVStore()
	prefs := NewStore(kv, nil)

	if prefs.DarkMode(ctx) {
		t.Error("expected light mode by default")
	}

	if err := prefs.SetDarkMode(ctx, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val, _ := kv.Value(storage.KeyDarkMode); val != "true" {
		t.Errorf("expected stored \"true\", got %q", val)
	}
	if !prefs.DarkMode(ctx) {
		t.Error("expected dark mode on")
	}

	on, err := prefs.ToggleDarkMode(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if on {
		t.Error("expected toggle to turn dark mode off")
	}
	if val, _ := kv.Value(storage.KeyDarkMode); val != "false" {
		t.Errorf("expected stored \"false\", got %q", val)
	}
}

func TestDarkMode_UnexpectedValue(t *testing.T) {
	kv := mocks.NewKVStore()
	kv.Seed(storage.KeyDarkMode, "yes")

	if NewStore(kv, nil).DarkMode(context.Background()) {
		t.Error("only \"true\" enables dark mode")
	}
}

func TestDarkMode_StorageFailure(t *testing.T) {
	ctx := context.Background()
	kv := mocks.NewKVStore()
	kv.FailAll(errors.New("unavailable"))
	prefs := NewStore(kv, nil)

	if prefs.DarkMode(ctx) {
		t.Error("expected light mode when storage fails")
	}
	if err := prefs.SetDarkMode(ctx, true); !apperrors.IsPersistenceUnavailable(err) {
		t.Errorf("expected PERSISTENCE_UNAVAILABLE, got %v", err)
	}
	if _, err := prefs.ToggleDarkMode(ctx); err == nil {
		t.Error("expected toggle to fail")
	}
}
