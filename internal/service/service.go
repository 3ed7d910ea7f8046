// Package service implements the URL-record lifecycle engine: unique code
// generation under collision retry, expiration/status gating of redirects
// and the mutation operations on a record. The engine is synchronous and
// holds no state beyond its collaborators; concurrency safety of the click
// accounting lives at the store boundary.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/ajkumarray/margdarshak/internal/entity"
	"github.com/ajkumarray/margdarshak/internal/validation"
)

// maxGenerationRetries bounds the generate-and-insert loop in ShortenURL.
// Exhaustion is fatal to the request; a resubmission draws a fresh sequence.
const maxGenerationRetries = 3

// URLRepository defines the record store the engine works against.
// Implementations must make Create an atomic insert-if-absent and
// RegisterHit an atomic gated read-modify-write.
type URLRepository interface {
	// Create inserts the record if its code is absent. A collision with any
	// existing code, deleted ones included, returns entity.ErrCodeExists.
	Create(ctx context.Context, url *entity.URL) (*entity.URL, error)

	// GetByCode retrieves a non-deleted record by its short code.
	GetByCode(ctx context.Context, code string) (*entity.URL, error)

	// RegisterHit atomically increments the click count and stamps the last
	// access time, but only while the record is resolvable at now. A record
	// that is absent, deleted, disabled or expired returns entity.ErrURLNotFound.
	RegisterHit(ctx context.Context, code string, now time.Time) (*entity.URL, error)

	// UpdateContent rewrites the target URL and expiry of a non-deleted record.
	UpdateContent(ctx context.Context, code, originalURL string, expiresAt, now time.Time) (*entity.URL, error)

	// SetStatus sets the status of a non-deleted record.
	SetStatus(ctx context.Context, code string, status entity.Status, now time.Time) (*entity.URL, error)

	// SetExpiry replaces the expiry of a non-deleted record.
	SetExpiry(ctx context.Context, code string, expiresAt, now time.Time) (*entity.URL, error)

	// SoftDelete marks a record deleted. The code stays reserved.
	SoftDelete(ctx context.Context, code string, now time.Time) error

	// ListByOwner returns the owner's active, non-deleted records in
	// creation order.
	ListByOwner(ctx context.Context, owner string) ([]*entity.URL, error)
}

// CodeGenerator produces candidate short codes. Uniqueness is the
// engine's responsibility.
type CodeGenerator interface {
	Generate() (string, error)
}

// Option configures optional URLService collaborators.
type Option func(*URLService)

// WithNow overrides the engine's clock. Used by tests.
func WithNow(now func() time.Time) Option {
	return func(s *URLService) {
		s.now = now
	}
}

// URLService is the lifecycle engine for URL records.
type URLService struct {
	repo      URLRepository
	gen       CodeGenerator
	validator *validation.Validator
	baseURL   string
	now       func() time.Time
}

// NewURLService wires the engine to its store, code generator and
// validator. baseURL is prepended to codes to form the short link.
func NewURLService(repo URLRepository, gen CodeGenerator, validator *validation.Validator, baseURL string, opts ...Option) *URLService {
	s := &URLService{
		repo:      repo,
		gen:       gen,
		validator: validator,
		baseURL:   baseURL,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ShortenURL validates the input, then tries up to maxGenerationRetries
// times to insert a record under a freshly generated code. Collisions are
// the only internally retried condition; every other failure propagates.
func (s *URLService) ShortenURL(ctx context.Context, originalURL string, expirationDays int, owner string) (*entity.URL, error) {
	const op = "service.URLService.ShortenURL"

	if err := s.validator.ValidateURL(originalURL); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.validator.ValidateExpirationDays(expirationDays); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()

	for i := 0; i < maxGenerationRetries; i++ {
		code, err := s.gen.Generate()
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		created, err := s.repo.Create(ctx, &entity.URL{
			Code:        code,
			OriginalURL: url.QueryEscape(originalURL),
			ShortURL:    s.baseURL + code,
			Owner:       owner,
			Status:      entity.StatusActive,
			ClickCount:  0,
			ExpiresAt:   now.AddDate(0, 0, expirationDays),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			if errors.Is(err, entity.ErrCodeExists) {
				continue
			}

			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		return s.decoded(created)
	}

	return nil, fmt.Errorf("%s: failed to generate a unique code after %d attempts: %w",
		op, maxGenerationRetries, entity.ErrCodeExhausted)
}

// ResolveShortCode returns the original URL for a resolvable code and
// counts the hit. The increment and access stamp happen in one atomic
// store operation, so concurrent resolutions never lose updates. Disabled,
// expired, deleted and unknown codes are indistinguishable to the caller.
func (s *URLService) ResolveShortCode(ctx context.Context, code string) (string, error) {
	const op = "service.URLService.ResolveShortCode"

	rec, err := s.repo.RegisterHit(ctx, code, s.now())
	if err != nil {
		return "", fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	originalURL, err := url.QueryUnescape(rec.OriginalURL)
	if err != nil {
		return "", fmt.Errorf("%s: failed to decode stored url: %w", op, err)
	}

	return originalURL, nil
}

// GetURLStats returns the record behind a code without counting a hit.
// It applies the same resolvability gate as the redirect path.
func (s *URLService) GetURLStats(ctx context.Context, code string) (*entity.URL, error) {
	const op = "service.URLService.GetURLStats"

	rec, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url stats: %w", op, err)
	}

	if !rec.Resolvable(s.now()) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	return s.decoded(rec)
}

// GetURLDetail returns the record behind a code for owner-facing views.
// Disabled and expired records stay inspectable; only deletion hides them.
func (s *URLService) GetURLDetail(ctx context.Context, code string) (*entity.URL, error) {
	const op = "service.URLService.GetURLDetail"

	rec, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url detail: %w", op, err)
	}

	return s.decoded(rec)
}

// ModifyURL rewrites the target URL and recomputes the expiry of a record.
// The record need not be resolvable; owners may fix expired links.
func (s *URLService) ModifyURL(ctx context.Context, code, newURL string, expirationDays int) (*entity.URL, error) {
	const op = "service.URLService.ModifyURL"

	if err := s.validator.ValidateURL(newURL); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.validator.ValidateExpirationDays(expirationDays); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()

	rec, err := s.repo.UpdateContent(ctx, code, url.QueryEscape(newURL), now.AddDate(0, 0, expirationDays), now)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to modify url: %w", op, err)
	}

	return s.decoded(rec)
}

// UpdateURLStatus sets the record's status. Setting the current status
// again is a no-op success.
func (s *URLService) UpdateURLStatus(ctx context.Context, code string, status entity.Status) (*entity.URL, error) {
	const op = "service.URLService.UpdateURLStatus"

	if !status.Valid() {
		return nil, fmt.Errorf("%s: %w: status must be %q or %q",
			op, entity.ErrInvalidInput, entity.StatusActive, entity.StatusDisabled)
	}

	rec, err := s.repo.SetStatus(ctx, code, status, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: failed to update url status: %w", op, err)
	}

	return s.decoded(rec)
}

// ExtendExpiration replaces the expiry with now + days. Repeated calls do
// not stack; each call measures from its own now.
func (s *URLService) ExtendExpiration(ctx context.Context, code string, days int) (*entity.URL, error) {
	const op = "service.URLService.ExtendExpiration"

	if err := s.validator.ValidateExpirationDays(days); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()

	rec, err := s.repo.SetExpiry(ctx, code, now.AddDate(0, 0, days), now)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extend expiration: %w", op, err)
	}

	return s.decoded(rec)
}

// DeactivateURL soft-deletes the record. The transition is one-way and the
// code is never reassigned afterwards.
func (s *URLService) DeactivateURL(ctx context.Context, code string) error {
	const op = "service.URLService.DeactivateURL"

	if err := s.repo.SoftDelete(ctx, code, s.now()); err != nil {
		return fmt.Errorf("%s: failed to deactivate url: %w", op, err)
	}

	return nil
}

// ListURLs returns the owner's active records in creation order.
func (s *URLService) ListURLs(ctx context.Context, owner string) ([]*entity.URL, error) {
	const op = "service.URLService.ListURLs"

	recs, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list urls: %w", op, err)
	}

	for i, rec := range recs {
		decoded, err := s.decoded(rec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		recs[i] = decoded
	}

	return recs, nil
}

// decoded returns the record with its stored percent-encoded target URL
// decoded for callers.
func (s *URLService) decoded(rec *entity.URL) (*entity.URL, error) {
	const op = "service.URLService.decoded"

	originalURL, err := url.QueryUnescape(rec.OriginalURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to decode stored url: %w", op, err)
	}

	cp := rec.Clone()
	cp.OriginalURL = originalURL

	return cp, nil
}
