// Package rediscache decorates a URL repository with a cache-aside layer
// for code lookups. Hit counting and mutations always go to the underlying
// store; mutations invalidate the cached entry. Cache failures degrade to
// the underlying store instead of failing the request.
package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ajkumarray/margdarshak/internal/entity"
	"github.com/ajkumarray/margdarshak/internal/service"
)

// NewClient connects to redis using a URL-style connection string and
// verifies the connection.
func NewClient(ctx context.Context, connString string) (*redis.Client, error) {
	opt, err := redis.ParseURL(connString)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// URLRepository wraps another repository with a read cache keyed by short
// code.
type URLRepository struct {
	next  service.URLRepository
	cache *redis.Client
	ttl   time.Duration
}

// NewURLRepository returns a caching decorator over next. Cached entries
// live for at most ttl.
func NewURLRepository(next service.URLRepository, cache *redis.Client, ttl time.Duration) *URLRepository {
	return &URLRepository{
		next:  next,
		cache: cache,
		ttl:   ttl,
	}
}

func cacheKey(code string) string {
	return "url:" + code
}

// Create passes through; the record is cached on first lookup.
func (r *URLRepository) Create(ctx context.Context, url *entity.URL) (*entity.URL, error) {
	return r.next.Create(ctx, url)
}

// GetByCode serves from the cache when possible and falls back to the
// underlying store, populating the cache on the way out.
func (r *URLRepository) GetByCode(ctx context.Context, code string) (*entity.URL, error) {
	if data, err := r.cache.Get(ctx, cacheKey(code)).Bytes(); err == nil {
		var rec entity.URL
		if err := json.Unmarshal(data, &rec); err == nil {
			return &rec, nil
		}
	}

	rec, err := r.next.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(rec); err == nil {
		r.cache.Set(ctx, cacheKey(code), data, r.ttl)
	}

	return rec, nil
}

// RegisterHit always reaches the underlying store, where the increment is
// atomic, and invalidates the cached entry afterwards.
func (r *URLRepository) RegisterHit(ctx context.Context, code string, now time.Time) (*entity.URL, error) {
	rec, err := r.next.RegisterHit(ctx, code, now)
	if err != nil {
		return nil, err
	}

	r.cache.Del(ctx, cacheKey(code))

	return rec, nil
}

// UpdateContent mutates the underlying store and invalidates the cache.
func (r *URLRepository) UpdateContent(ctx context.Context, code, originalURL string, expiresAt, now time.Time) (*entity.URL, error) {
	rec, err := r.next.UpdateContent(ctx, code, originalURL, expiresAt, now)
	if err != nil {
		return nil, err
	}

	r.cache.Del(ctx, cacheKey(code))

	return rec, nil
}

// SetStatus mutates the underlying store and invalidates the cache.
func (r *URLRepository) SetStatus(ctx context.Context, code string, status entity.Status, now time.Time) (*entity.URL, error) {
	rec, err := r.next.SetStatus(ctx, code, status, now)
	if err != nil {
		return nil, err
	}

	r.cache.Del(ctx, cacheKey(code))

	return rec, nil
}

// SetExpiry mutates the underlying store and invalidates the cache.
func (r *URLRepository) SetExpiry(ctx context.Context, code string, expiresAt, now time.Time) (*entity.URL, error) {
	rec, err := r.next.SetExpiry(ctx, code, expiresAt, now)
	if err != nil {
		return nil, err
	}

	r.cache.Del(ctx, cacheKey(code))

	return rec, nil
}

// SoftDelete mutates the underlying store and invalidates the cache.
func (r *URLRepository) SoftDelete(ctx context.Context, code string, now time.Time) error {
	if err := r.next.SoftDelete(ctx, code, now); err != nil {
		return err
	}

	r.cache.Del(ctx, cacheKey(code))

	return nil
}

// ListByOwner passes through; listings are not cached.
func (r *URLRepository) ListByOwner(ctx context.Context, owner string) ([]*entity.URL, error) {
	return r.next.ListByOwner(ctx, owner)
}
