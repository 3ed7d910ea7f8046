package service

import (
	"context"
	"time"

	"github.com/ajkumarray/margdarshak/internal/entity"
	"github.com/stretchr/testify/mock"
)

type MockURLRepository struct {
	mock.Mock
}

func (r *MockURLRepository) Create(ctx context.Context, url *entity.URL) (*entity.URL, error) {
	args := r.Called(ctx, url)
	rec, _ := args.Get(0).(*entity.URL)
	return rec, args.Error(1)
}

func (r *MockURLRepository) GetByCode(ctx context.Context, code string) (*entity.URL, error) {
	args := r.Called(ctx, code)
	rec, _ := args.Get(0).(*entity.URL)
	return rec, args.Error(1)
}

func (r *MockURLRepository) RegisterHit(ctx context.Context, code string, now time.Time) (*entity.URL, error) {
	args := r.Called(ctx, code, now)
	rec, _ := args.Get(0).(*entity.URL)
	return rec, args.Error(1)
}

func (r *MockURLRepository) UpdateContent(ctx context.Context, code, originalURL string, expiresAt, now time.Time) (*entity.URL, error) {
	args := r.Called(ctx, code, originalURL, expiresAt, now)
	rec, _ := args.Get(0).(*entity.URL)
	return rec, args.Error(1)
}

func (r *MockURLRepository) SetStatus(ctx context.Context, code string, status entity.Status, now time.Time) (*entity.URL, error) {
	args := r.Called(ctx, code, status, now)
	rec, _ := args.Get(0).(*entity.URL)
	return rec, args.Error(1)
}

func (r *MockURLRepository) SetExpiry(ctx context.Context, code string, expiresAt, now time.Time) (*entity.URL, error) {
	args := r.Called(ctx, code, expiresAt, now)
	rec, _ := args.Get(0).(*entity.URL)
	return rec, args.Error(1)
}

func (r *MockURLRepository) SoftDelete(ctx context.Context, code string, now time.Time) error {
	args := r.Called(ctx, code, now)
	return args.Error(0)
}

func (r *MockURLRepository) ListByOwner(ctx context.Context, owner string) ([]*entity.URL, error) {
	args := r.Called(ctx, owner)
	recs, _ := args.Get(0).([]*entity.URL)
	return recs, args.Error(1)
}

// stubGenerator hands out a fixed sequence of codes.
type stubGenerator struct {
	codes []string
	err   error
	calls int
}

func (g *stubGenerator) Generate() (string, error) {
	if g.err != nil {
		return "", g.err
	}

	code := g.codes[g.calls%len(g.codes)]
	g.calls++
	return code, nil
}
