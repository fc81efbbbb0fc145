package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTempCache(t *testing.T) *Cache {
	t.Helper()
	c, err := OpenCache(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func fig(id, name string) Amiibo {
	return Amiibo{
		ID:           id,
		Name:         name,
		Character:    name,
		GameSeries:   "Super Mario",
		AmiiboSeries: "Super Smash Bros.",
		Type:         "Figure",
		ImageURL:     "https://example.com/" + id + ".png",
	}
}

func TestOpenCacheRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := OpenCache(" "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpenCacheEnablesWAL(t *testing.T) {
	t.Parallel()

	c := openTempCache(t)
	var mode string
	if err := c.db.QueryRowContext(context.Background(), `PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("journal_mode = %q, want wal", mode)
	}
}

func TestReplaceAllAndPageOrdering(t *testing.T) {
	t.Parallel()

	c := openTempCache(t)
	ctx := context.Background()
	items := []Amiibo{
		fig("03", "Yoshi"),
		fig("01", "Mario"),
		fig("02", "Peach"),
		fig("04", "Bowser"),
		fig("05", "Luigi"),
	}
	if err := c.ReplaceAll(ctx, items); err != nil {
		t.Fatalf("replace all: %v", err)
	}

	count, err := c.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != len(items) {
		t.Fatalf("count = %d, want %d", count, len(items))
	}

	page0, err := c.Page(ctx, 0, 2)
	if err != nil {
		t.Fatalf("page 0: %v", err)
	}
	page1, err := c.Page(ctx, 1, 2)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}

	wantNames := []string{"Bowser", "Luigi", "Mario", "Peach"}
	got := append(append([]Amiibo{}, page0...), page1...)
	if len(got) != len(wantNames) {
		t.Fatalf("pages hold %d figures, want %d", len(got), len(wantNames))
	}
	for i, a := range got {
		if a.Name != wantNames[i] {
			t.Fatalf("position %d = %q, want %q", i, a.Name, wantNames[i])
		}
	}
}

func TestReplaceAllSwapsCatalog(t *testing.T) {
	t.Parallel()

	c := openTempCache(t)
	ctx := context.Background()
	if err := c.ReplaceAll(ctx, []Amiibo{fig("01", "Mario"), fig("02", "Peach")}); err != nil {
		t.Fatalf("first replace: %v", err)
	}
	if err := c.ReplaceAll(ctx, []Amiibo{fig("03", "Yoshi")}); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	count, err := c.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("count after swap = %d, want 1", count)
	}
	page, err := c.Page(ctx, 0, 10)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page) != 1 || page[0].Name != "Yoshi" {
		t.Fatalf("page after swap = %+v, want only Yoshi", page)
	}
}

func TestPageRejectsBadWindow(t *testing.T) {
	t.Parallel()

	c := openTempCache(t)
	if _, err := c.Page(context.Background(), -1, 10); err == nil {
		t.Fatal("expected negative index error")
	}
	if _, err := c.Page(context.Background(), 0, 0); err == nil {
		t.Fatal("expected zero size error")
	}
}

func TestSearchMatchesCaseInsensitive(t *testing.T) {
	t.Parallel()

	c := openTempCache(t)
	ctx := context.Background()
	mario := fig("01", "Mario")
	zelda := fig("02", "Zelda")
	zelda.GameSeries = "The Legend of Zelda"
	if err := c.ReplaceAll(ctx, []Amiibo{mario, zelda}); err != nil {
		t.Fatalf("replace all: %v", err)
	}

	got, err := c.Search(ctx, "MARIO")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Mario" {
		t.Fatalf("search MARIO = %+v, want Mario", got)
	}

	// Series columns match too.
	got, err = c.Search(ctx, "legend of")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Zelda" {
		t.Fatalf("search 'legend of' = %+v, want Zelda", got)
	}
}

func TestSearchEscapesWildcards(t *testing.T) {
	t.Parallel()

	c := openTempCache(t)
	ctx := context.Background()
	if err := c.ReplaceAll(ctx, []Amiibo{fig("01", "Mario"), fig("02", "100% Orange")}); err != nil {
		t.Fatalf("replace all: %v", err)
	}

	got, err := c.Search(ctx, "%")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].Name != "100% Orange" {
		t.Fatalf("search %% = %+v, want the literal match only", got)
	}
}

func TestLastSyncRoundTrip(t *testing.T) {
	t.Parallel()

	c := openTempCache(t)
	ctx := context.Background()

	got, err := c.LastSync(ctx)
	if err != nil {
		t.Fatalf("last sync: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("never-synced cache reports %v, want zero time", got)
	}

	stamp := time.Date(2026, time.August, 20, 10, 30, 0, 0, time.UTC)
	if err := c.SetLastSync(ctx, stamp); err != nil {
		t.Fatalf("set last sync: %v", err)
	}
	got, err = c.LastSync(ctx)
	if err != nil {
		t.Fatalf("last sync: %v", err)
	}
	if !got.Equal(stamp) {
		t.Fatalf("last sync = %v, want %v", got, stamp)
	}

	// Overwrites are fine.
	later := stamp.Add(time.Hour)
	if err := c.SetLastSync(ctx, later); err != nil {
		t.Fatalf("overwrite last sync: %v", err)
	}
	got, err = c.LastSync(ctx)
	if err != nil {
		t.Fatalf("last sync: %v", err)
	}
	if !got.Equal(later) {
		t.Fatalf("last sync = %v, want %v", got, later)
	}
}
