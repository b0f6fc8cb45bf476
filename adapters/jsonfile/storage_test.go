package jsonfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gamegen/core"
)

func TestStorePersistAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "state.json")

	store, err := New(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	if err := store.ZAdd(ctx, "leaderboard:g1", "Zoe", 500); err != nil {
		t.Fatalf("zadd: %v", err)
	}
	if err := store.ZAdd(ctx, "leaderboard:g1", "Max", 800); err != nil {
		t.Fatalf("zadd: %v", err)
	}
	if err := store.ZAdd(ctx, "leaderboard:g1", "Zoe", 650); err != nil {
		t.Fatalf("zadd: %v", err)
	}
	if err := store.SetString(ctx, "game_html:abc", "<html>", 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	// ensure file written
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file at %s", path)
	}

	// reload
	reloaded, err := New(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	raw, err := reloaded.ZRevRangeWithScores(ctx, "leaderboard:g1", 0, 9)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	rows := raw.([]map[string]any)
	if len(rows) != 2 || rows[0]["member"] != "Max" || rows[1]["score"] != 650.0 {
		t.Fatalf("unexpected rows %#v", rows)
	}
	if v, err := reloaded.GetString(ctx, "game_html:abc"); err != nil || v != "<html>" {
		t.Fatalf("get: %q %v", v, err)
	}
}

func TestStoreRangeWindow(t *testing.T) {
	store, _ := New(filepath.Join(t.TempDir(), "s.json"))
	ctx := context.Background()
	for i, n := range []string{"a", "b", "c"} {
		_ = store.ZAdd(ctx, "k", n, float64(i))
	}
	raw, _ := store.ZRevRangeWithScores(ctx, "k", 0, 1)
	rows := raw.([]map[string]any)
	if len(rows) != 2 || rows[0]["member"] != "c" || rows[1]["member"] != "b" {
		t.Fatalf("unexpected %#v", rows)
	}
	raw, _ = store.ZRevRangeWithScores(ctx, "missing", 0, 9)
	if len(raw.([]map[string]any)) != 0 {
		t.Fatal("missing key should be empty")
	}
}

func TestStoreStringExpiry(t *testing.T) {
	store, _ := New(filepath.Join(t.TempDir(), "s.json"))
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_ = store.SetString(ctx, "k", "v", time.Hour)
	now = now.Add(2 * time.Hour)
	if _, err := store.GetString(ctx, "k"); !errors.Is(err, core.ErrKeyNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestNewRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path); err == nil {
		t.Fatal("expected error for corrupt file")
	}
}
