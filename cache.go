package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Cache is the local SQLite copy of the catalog. The browser never
// pages against the API directly; pages and searches are served from
// here, and Refresh rebuilds the whole table.
//
// Cache 是目录在本地的 SQLite 副本。浏览器从不直接向 API 分页，
// 分页和搜索都由本地缓存提供，Refresh 会整表重建。
type Cache struct {
	db *sql.DB
}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS amiibo (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	character     TEXT NOT NULL,
	game_series   TEXT NOT NULL,
	amiibo_series TEXT NOT NULL,
	type          TEXT NOT NULL,
	image_url     TEXT NOT NULL,
	release_na    TEXT NOT NULL DEFAULT '',
	release_eu    TEXT NOT NULL DEFAULT '',
	release_jp    TEXT NOT NULL DEFAULT '',
	release_au    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_amiibo_name ON amiibo(name, id);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// OpenCache opens (or creates) the catalog database at path and
// ensures the schema exists.
//
// OpenCache 打开（或创建）位于 path 的目录数据库，并确保表结构存在。
func OpenCache(path string) (*Cache, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("cache path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	// modernc.org/sqlite takes pragmas as _pragma=name(value) pairs;
	// busy_timeout keeps a page read from failing while a refresh
	// transaction holds the write lock.
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping cache db: %w", err)
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the database handle.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// ReplaceAll swaps the entire cached catalog for items in a single
// transaction, so readers never observe a half-written refresh.
//
// ReplaceAll 在单个事务中用 items 替换整个缓存目录，
// 读取方永远不会看到写了一半的刷新结果。
func (c *Cache) ReplaceAll(ctx context.Context, items []Amiibo) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin refresh tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM amiibo`); err != nil {
		return fmt.Errorf("clear catalog: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO amiibo (
		id, name, character, game_series, amiibo_series, type, image_url,
		release_na, release_eu, release_jp, release_au
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range items {
		if a.ID == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			a.ID, a.Name, a.Character, a.GameSeries, a.AmiiboSeries,
			a.Type, a.ImageURL,
			a.ReleaseNA, a.ReleaseEU, a.ReleaseJP, a.ReleaseAU,
		); err != nil {
			return fmt.Errorf("insert figure %s: %w", a.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit refresh: %w", err)
	}
	return nil
}

// Page returns one page of the catalog ordered by (name, id). Page
// indexes start at zero.
func (c *Cache) Page(ctx context.Context, index, size int) ([]Amiibo, error) {
	if index < 0 || size <= 0 {
		return nil, fmt.Errorf("invalid page window index=%d size=%d", index, size)
	}
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, name, character, game_series, amiibo_series, type, image_url,
		        release_na, release_eu, release_jp, release_au
		 FROM amiibo ORDER BY name, id LIMIT ? OFFSET ?`,
		size, index*size)
	if err != nil {
		return nil, fmt.Errorf("query page %d: %w", index, err)
	}
	defer rows.Close()
	return scanAmiibos(rows)
}

// Count returns the number of cached figures.
func (c *Cache) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM amiibo`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count catalog: %w", err)
	}
	return n, nil
}

// searchLimit caps search results; the grid never needs more than this
// and unbounded LIKE scans on every keystroke would be wasteful.
const searchLimit = 200

// Search returns figures whose name, character or series contains the
// query, case-insensitively, ordered like Page.
func (c *Cache) Search(ctx context.Context, query string) ([]Amiibo, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, name, character, game_series, amiibo_series, type, image_url,
		        release_na, release_eu, release_jp, release_au
		 FROM amiibo
		 WHERE name LIKE ? ESCAPE '\'
		    OR character LIKE ? ESCAPE '\'
		    OR game_series LIKE ? ESCAPE '\'
		    OR amiibo_series LIKE ? ESCAPE '\'
		 ORDER BY name, id LIMIT ?`,
		pattern, pattern, pattern, pattern, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	defer rows.Close()
	return scanAmiibos(rows)
}

// escapeLike escapes LIKE wildcards in user input.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

const metaLastSync = "last_sync"

// LastSync returns when the catalog was last refreshed, or the zero
// time if it never was.
func (c *Cache) LastSync(ctx context.Context) (time.Time, error) {
	var value string
	err := c.db.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key = ?`, metaLastSync).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read last sync: %w", err)
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, nil // treat a corrupt stamp as never synced
	}
	return t, nil
}

// SetLastSync records a refresh timestamp.
func (c *Cache) SetLastSync(ctx context.Context, t time.Time) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		metaLastSync, t.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write last sync: %w", err)
	}
	return nil
}

func scanAmiibos(rows *sql.Rows) ([]Amiibo, error) {
	var items []Amiibo
	for rows.Next() {
		var a Amiibo
		if err := rows.Scan(
			&a.ID, &a.Name, &a.Character, &a.GameSeries, &a.AmiiboSeries,
			&a.Type, &a.ImageURL,
			&a.ReleaseNA, &a.ReleaseEU, &a.ReleaseJP, &a.ReleaseAU,
		); err != nil {
			return nil, fmt.Errorf("scan figure: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate figures: %w", err)
	}
	return items, nil
}
