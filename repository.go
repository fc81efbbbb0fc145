package main

import (
	"context"
	"log"
	"time"
)

// Repository is the contract the browse screen consumes. It hides
// where figures come from: the concrete implementation serves pages
// and searches out of the local cache and only touches the network on
// Refresh.
type Repository interface {
	// FetchByQuery returns figures matching a search query.
	FetchByQuery(ctx context.Context, query string) ([]Amiibo, error)

	// FetchPage returns the zero-indexed page of the catalog.
	FetchPage(ctx context.Context, index, size int) ([]Amiibo, error)

	// HasMorePages reports whether a page exists after index.
	HasMorePages(ctx context.Context, index, size int) (bool, error)

	// Refresh re-downloads the catalog into the cache.
	Refresh(ctx context.Context) error
}

// CatalogRepository backs the Repository contract with the AmiiboAPI
// client and the SQLite cache.
type CatalogRepository struct {
	api   *APIClient
	cache *Cache

	// ttl is how long a cached catalog counts as fresh. FetchPage
	// refreshes automatically when the cache is empty or older than
	// this, so a first run needs no manual refresh.
	ttl time.Duration
}

// NewCatalogRepository wires the API client and cache together.
func NewCatalogRepository(api *APIClient, cache *Cache, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{api: api, cache: cache, ttl: ttl}
}

// FetchByQuery searches the cached catalog.
func (r *CatalogRepository) FetchByQuery(ctx context.Context, query string) ([]Amiibo, error) {
	return r.cache.Search(ctx, query)
}

// FetchPage returns one page, refreshing the cache first if it is
// empty or stale.
func (r *CatalogRepository) FetchPage(ctx context.Context, index, size int) ([]Amiibo, error) {
	if err := r.ensureFresh(ctx); err != nil {
		return nil, err
	}
	return r.cache.Page(ctx, index, size)
}

// HasMorePages reports whether the catalog extends past the given
// page window.
func (r *CatalogRepository) HasMorePages(ctx context.Context, index, size int) (bool, error) {
	total, err := r.cache.Count(ctx)
	if err != nil {
		return false, err
	}
	return (index+1)*size < total, nil
}

// Refresh downloads the catalog and replaces the cache.
func (r *CatalogRepository) Refresh(ctx context.Context) error {
	items, err := r.api.FetchAll(ctx)
	if err != nil {
		return err
	}
	if err := r.cache.ReplaceAll(ctx, items); err != nil {
		return err
	}
	if err := r.cache.SetLastSync(ctx, time.Now()); err != nil {
		return err
	}
	return nil
}

// ensureFresh refreshes when the cache is empty or past its TTL. A
// stale-but-populated cache that fails to refresh is still served;
// only an empty cache propagates the refresh error.
func (r *CatalogRepository) ensureFresh(ctx context.Context) error {
	count, err := r.cache.Count(ctx)
	if err != nil {
		return err
	}
	last, err := r.cache.LastSync(ctx)
	if err != nil {
		return err
	}
	fresh := count > 0 && (r.ttl <= 0 || time.Since(last) < r.ttl)
	if fresh {
		return nil
	}
	if err := r.Refresh(ctx); err != nil {
		if count > 0 {
			log.Printf("repository: serving stale catalog, refresh failed: %v", err)
			return nil
		}
		return err
	}
	return nil
}
