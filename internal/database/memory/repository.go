// Package memory provides a mutex-guarded in-memory URL record store. It
// mirrors the postgres repository's semantics — insert-if-absent, gated
// atomic hit counting, soft deletion — and backs tests and single-process
// deployments that don't want a database.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ajkumarray/margdarshak/internal/entity"
)

// URLRepository stores URL records in process memory. All operations are
// safe for concurrent use; records are cloned on the way in and out so
// callers never share mutable state with the store.
type URLRepository struct {
	mu     sync.RWMutex
	nextID int64
	urls   map[string]*entity.URL
	order  []string
}

// NewURLRepository returns an empty in-memory store.
func NewURLRepository() *URLRepository {
	return &URLRepository{
		urls: make(map[string]*entity.URL),
	}
}

// Create inserts the record if its code is absent. Soft-deleted records
// keep their codes reserved, so a collision with one still fails.
func (r *URLRepository) Create(ctx context.Context, url *entity.URL) (*entity.URL, error) {
	const op = "database.memory.URLRepository.Create"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.urls[url.Code]; exists {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrCodeExists)
	}

	rec := url.Clone()
	r.nextID++
	rec.ID = r.nextID

	r.urls[rec.Code] = rec
	r.order = append(r.order, rec.Code)

	return rec.Clone(), nil
}

// GetByCode retrieves a non-deleted record by its short code.
func (r *URLRepository) GetByCode(ctx context.Context, code string) (*entity.URL, error) {
	const op = "database.memory.URLRepository.GetByCode"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.urls[code]
	if !exists || rec.Deleted {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	return rec.Clone(), nil
}

// RegisterHit increments the click counter and stamps the access time
// under the write lock, gated on resolvability at now.
func (r *URLRepository) RegisterHit(ctx context.Context, code string, now time.Time) (*entity.URL, error) {
	const op = "database.memory.URLRepository.RegisterHit"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.urls[code]
	if !exists || !rec.Resolvable(now) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	rec.ClickCount++
	accessed := now
	rec.LastAccessedAt = &accessed
	rec.UpdatedAt = now

	return rec.Clone(), nil
}

// UpdateContent rewrites the target URL and expiry of a non-deleted record.
func (r *URLRepository) UpdateContent(ctx context.Context, code, originalURL string, expiresAt, now time.Time) (*entity.URL, error) {
	const op = "database.memory.URLRepository.UpdateContent"

	return r.mutate(ctx, op, code, func(rec *entity.URL) {
		rec.OriginalURL = originalURL
		rec.ExpiresAt = expiresAt
		rec.UpdatedAt = now
	})
}

// SetStatus sets the record status.
func (r *URLRepository) SetStatus(ctx context.Context, code string, status entity.Status, now time.Time) (*entity.URL, error) {
	const op = "database.memory.URLRepository.SetStatus"

	return r.mutate(ctx, op, code, func(rec *entity.URL) {
		rec.Status = status
		rec.UpdatedAt = now
	})
}

// SetExpiry replaces the expiry timestamp of a non-deleted record.
func (r *URLRepository) SetExpiry(ctx context.Context, code string, expiresAt, now time.Time) (*entity.URL, error) {
	const op = "database.memory.URLRepository.SetExpiry"

	return r.mutate(ctx, op, code, func(rec *entity.URL) {
		rec.ExpiresAt = expiresAt
		rec.UpdatedAt = now
	})
}

// SoftDelete marks the record deleted; its code stays reserved.
func (r *URLRepository) SoftDelete(ctx context.Context, code string, now time.Time) error {
	const op = "database.memory.URLRepository.SoftDelete"

	_, err := r.mutate(ctx, op, code, func(rec *entity.URL) {
		rec.Deleted = true
		deleted := now
		rec.DeletedAt = &deleted
		rec.UpdatedAt = now
	})

	return err
}

// ListByOwner returns the owner's active, non-deleted records in creation
// order, snapshotted at call time.
func (r *URLRepository) ListByOwner(ctx context.Context, owner string) ([]*entity.URL, error) {
	const op = "database.memory.URLRepository.ListByOwner"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	urls := make([]*entity.URL, 0)
	for _, code := range r.order {
		rec := r.urls[code]
		if rec.Owner == owner && rec.Status == entity.StatusActive && !rec.Deleted {
			urls = append(urls, rec.Clone())
		}
	}

	return urls, nil
}

func (r *URLRepository) mutate(ctx context.Context, op, code string, fn func(*entity.URL)) (*entity.URL, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.urls[code]
	if !exists || rec.Deleted {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	fn(rec)

	return rec.Clone(), nil
}
