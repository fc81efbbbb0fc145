package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	tea "github.com/charmbracelet/bubbletea"
)

func TestLoadConfigCreatesDefaultFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config file not written: %v", err)
	}
	if cfg.App.PageSize != 30 {
		t.Fatalf("page size = %d, want default 30", cfg.App.PageSize)
	}
	if cfg.App.APIBaseURL != defaultAPIBaseURL {
		t.Fatalf("api base url = %q, want default", cfg.App.APIBaseURL)
	}
	if len(cfg.Keymap.Browse.Search) == 0 {
		t.Fatal("default search binding missing")
	}
}

func TestLoadConfigBackfillsPartialFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	partial := "[app]\nPageSize = 12\n\n[keymap.browse]\nRefresh = \"ctrl+f\"\n"
	if err := os.WriteFile(path, []byte(partial), 0644); err != nil {
		t.Fatalf("write partial config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.App.PageSize != 12 {
		t.Fatalf("page size = %d, want 12 from file", cfg.App.PageSize)
	}
	if cfg.App.Database == "" {
		t.Fatal("database path not backfilled")
	}
	if got := cfg.Keymap.Browse.Refresh; len(got) != 1 || got[0] != "ctrl+f" {
		t.Fatalf("refresh binding = %v, want the override", got)
	}
	if len(cfg.Keymap.Browse.NavUp) == 0 {
		t.Fatal("nav up binding not backfilled")
	}
	if len(cfg.Keymap.Global.Quit) == 0 {
		t.Fatal("quit binding not backfilled")
	}
}

func TestLoadConfigRejectsKeyConflict(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	conflicted := "[keymap.browse]\nNavUp = \"k\"\nNavDown = \"k\"\n"
	if err := os.WriteFile(path, []byte(conflicted), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected key conflict error")
	}
	if !strings.Contains(err.Error(), "key conflict") {
		t.Fatalf("error = %v, want key conflict", err)
	}
}

func TestLoadConfigRejectsInvalidKey(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	bad := "[keymap.browse]\nNavUp = \"bogus\"\n"
	if err := os.WriteFile(path, []byte(bad), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected invalid key error")
	}
	if !strings.Contains(err.Error(), "invalid key") {
		t.Fatalf("error = %v, want invalid key", err)
	}
}

func TestKeyUnmarshalsStringOrList(t *testing.T) {
	t.Parallel()

	var single struct {
		K Key `toml:"k"`
	}
	if err := toml.Unmarshal([]byte(`k = "a"`), &single); err != nil {
		t.Fatalf("unmarshal single: %v", err)
	}
	if len(single.K) != 1 || single.K[0] != "a" {
		t.Fatalf("single key = %v, want [a]", single.K)
	}

	var multi struct {
		K Key `toml:"k"`
	}
	if err := toml.Unmarshal([]byte(`k = ["a", "b"]`), &multi); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(multi.K) != 2 || multi.K[1] != "b" {
		t.Fatalf("multi key = %v, want [a b]", multi.K)
	}
}

func TestDefaultKeymapBindings(t *testing.T) {
	t.Parallel()

	keys := getDefaultConfig().Keymap.Browse
	if !keys.Search.Matches(keyRune('/')) || !keys.Search.Matches(keyRune('f')) {
		t.Fatalf("search bindings = %v, want / and f", keys.Search)
	}
	if !keys.FavoritesOnly.Matches(keyRune('*')) {
		t.Fatalf("favorites filter bindings = %v, want *", keys.FavoritesOnly)
	}
	if keys.FavoritesOnly.Matches(keyRune('f')) {
		t.Fatal("f bound to the favorites filter as well as search")
	}
	if err := validateKeymap(getDefaultConfig().Keymap); err != nil {
		t.Fatalf("default keymap invalid: %v", err)
	}
}

func TestKeyMatches(t *testing.T) {
	t.Parallel()

	k := Key{"space", "q"}
	if !k.Matches(tea.KeyMsg{Type: tea.KeySpace}) {
		t.Fatal("space alias not matched")
	}
	if !k.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}) {
		t.Fatal("rune key not matched")
	}
	if k.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}}) {
		t.Fatal("unbound key matched")
	}
}
