package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ajkumarray/margdarshak/internal/entity"
	"github.com/ajkumarray/margdarshak/internal/validation"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const testBaseURL = "http://localhost:8080/"

type URLServiceTestSuite struct {
	suite.Suite
	now         time.Time
	errUnknown  error
	urlRepoMock *MockURLRepository
	gen         *stubGenerator
	svc         *URLService
}

func (suite *URLServiceTestSuite) SetupSuite() {
	suite.now = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	suite.errUnknown = errors.New("unknown error")
}

func (suite *URLServiceTestSuite) SetupSubTest() {
	suite.urlRepoMock = new(MockURLRepository)
	suite.gen = &stubGenerator{codes: []string{"abc123", "def456", "ghi789"}}
	suite.svc = NewURLService(
		suite.urlRepoMock,
		suite.gen,
		validation.New(validation.DefaultLimits()),
		testBaseURL,
		WithNow(func() time.Time { return suite.now }),
	)
}

func (suite *URLServiceTestSuite) TearDownSubTest() {
	suite.urlRepoMock.AssertExpectations(suite.T())
}

func (suite *URLServiceTestSuite) TestShortenURL() {
	suite.Run("invalid url", func() {
		url, err := suite.svc.ShortenURL(context.Background(), "ftp://x.com", 30, "owner1")

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrInvalidInput)
		suite.Nil(url)
		suite.urlRepoMock.AssertNotCalled(suite.T(), "Create")
	})

	suite.Run("invalid expiration days", func() {
		url, err := suite.svc.ShortenURL(context.Background(), "https://example.com", 400, "owner1")

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrInvalidInput)
		suite.Nil(url)
		suite.urlRepoMock.AssertNotCalled(suite.T(), "Create")
	})

	suite.Run("code exhaustion", func() {
		suite.urlRepoMock.
			On("Create", context.Background(), mock.Anything).
			Times(3).
			Return(nil, entity.ErrCodeExists)

		url, err := suite.svc.ShortenURL(context.Background(), "https://example.com", 30, "owner1")

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrCodeExhausted)
		suite.Nil(url)
	})

	suite.Run("collision then success", func() {
		suite.urlRepoMock.
			On("Create", context.Background(), mock.MatchedBy(func(u *entity.URL) bool {
				return u.Code == "abc123"
			})).
			Once().
			Return(nil, entity.ErrCodeExists)
		suite.urlRepoMock.
			On("Create", context.Background(), mock.MatchedBy(func(u *entity.URL) bool {
				return u.Code == "def456"
			})).
			Once().
			Return(&entity.URL{
				Code:        "def456",
				OriginalURL: "https%3A%2F%2Fexample.com",
				ShortURL:    testBaseURL + "def456",
				Status:      entity.StatusActive,
			}, nil)

		url, err := suite.svc.ShortenURL(context.Background(), "https://example.com", 30, "owner1")

		suite.NoError(err)
		suite.NotNil(url)
		suite.Equal("def456", url.Code)
	})

	suite.Run("unknown error", func() {
		suite.urlRepoMock.
			On("Create", context.Background(), mock.Anything).
			Once().
			Return(nil, suite.errUnknown)

		url, err := suite.svc.ShortenURL(context.Background(), "https://example.com", 30, "owner1")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(url)
	})

	suite.Run("generator error", func() {
		suite.gen.err = errors.New("entropy source failed")

		url, err := suite.svc.ShortenURL(context.Background(), "https://example.com", 30, "owner1")

		suite.Error(err)
		suite.Nil(url)
		suite.urlRepoMock.AssertNotCalled(suite.T(), "Create")
	})

	suite.Run("success", func() {
		wantExpiry := suite.now.AddDate(0, 0, 30)

		suite.urlRepoMock.
			On("Create", context.Background(), mock.MatchedBy(func(u *entity.URL) bool {
				return u.Code == "abc123" &&
					u.OriginalURL == "https%3A%2F%2Fexample.com" &&
					u.ShortURL == testBaseURL+"abc123" &&
					u.Owner == "owner1" &&
					u.Status == entity.StatusActive &&
					u.ClickCount == 0 &&
					u.LastAccessedAt == nil &&
					u.ExpiresAt.Equal(wantExpiry) &&
					u.CreatedAt.Equal(suite.now) &&
					u.UpdatedAt.Equal(suite.now)
			})).
			Once().
			Return(&entity.URL{
				Code:        "abc123",
				OriginalURL: "https%3A%2F%2Fexample.com",
				ShortURL:    testBaseURL + "abc123",
				Owner:       "owner1",
				Status:      entity.StatusActive,
				ExpiresAt:   wantExpiry,
				CreatedAt:   suite.now,
				UpdatedAt:   suite.now,
			}, nil)

		url, err := suite.svc.ShortenURL(context.Background(), "https://example.com", 30, "owner1")

		suite.NoError(err)
		suite.NotNil(url)
		suite.Equal("abc123", url.Code)
		suite.Equal("https://example.com", url.OriginalURL)
		suite.Zero(url.ClickCount)
	})
}

func (suite *URLServiceTestSuite) TestResolveShortCode() {
	suite.Run("not found", func() {
		suite.urlRepoMock.
			On("RegisterHit", context.Background(), "abc123", suite.now).
			Once().
			Return(nil, entity.ErrURLNotFound)

		originalURL, err := suite.svc.ResolveShortCode(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Empty(originalURL)
	})

	suite.Run("success", func() {
		accessed := suite.now

		suite.urlRepoMock.
			On("RegisterHit", context.Background(), "abc123", suite.now).
			Once().
			Return(&entity.URL{
				Code:           "abc123",
				OriginalURL:    "https%3A%2F%2Fexample.com%2Fa%3Fb%3D1",
				Status:         entity.StatusActive,
				ClickCount:     1,
				LastAccessedAt: &accessed,
			}, nil)

		originalURL, err := suite.svc.ResolveShortCode(context.Background(), "abc123")

		suite.NoError(err)
		suite.Equal("https://example.com/a?b=1", originalURL)
	})
}

func (suite *URLServiceTestSuite) TestGetURLStats() {
	suite.Run("not found", func() {
		suite.urlRepoMock.
			On("GetByCode", context.Background(), "abc123").
			Once().
			Return(nil, entity.ErrURLNotFound)

		url, err := suite.svc.GetURLStats(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("disabled record is gated", func() {
		suite.urlRepoMock.
			On("GetByCode", context.Background(), "abc123").
			Once().
			Return(&entity.URL{
				Code:        "abc123",
				OriginalURL: "https%3A%2F%2Fexample.com",
				Status:      entity.StatusDisabled,
				ExpiresAt:   suite.now.AddDate(0, 0, 30),
			}, nil)

		url, err := suite.svc.GetURLStats(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("expired record is gated", func() {
		suite.urlRepoMock.
			On("GetByCode", context.Background(), "abc123").
			Once().
			Return(&entity.URL{
				Code:        "abc123",
				OriginalURL: "https%3A%2F%2Fexample.com",
				Status:      entity.StatusActive,
				ExpiresAt:   suite.now.Add(-time.Minute),
			}, nil)

		url, err := suite.svc.GetURLStats(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("success without counting a hit", func() {
		suite.urlRepoMock.
			On("GetByCode", context.Background(), "abc123").
			Once().
			Return(&entity.URL{
				Code:        "abc123",
				OriginalURL: "https%3A%2F%2Fexample.com",
				Status:      entity.StatusActive,
				ClickCount:  7,
				ExpiresAt:   suite.now.AddDate(0, 0, 30),
			}, nil)

		url, err := suite.svc.GetURLStats(context.Background(), "abc123")

		suite.NoError(err)
		suite.NotNil(url)
		suite.Equal(int64(7), url.ClickCount)
		suite.Equal("https://example.com", url.OriginalURL)
		suite.urlRepoMock.AssertNotCalled(suite.T(), "RegisterHit")
	})
}

func (suite *URLServiceTestSuite) TestGetURLDetail() {
	suite.Run("not found", func() {
		suite.urlRepoMock.
			On("GetByCode", context.Background(), "abc123").
			Once().
			Return(nil, entity.ErrURLNotFound)

		url, err := suite.svc.GetURLDetail(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("disabled record stays inspectable", func() {
		suite.urlRepoMock.
			On("GetByCode", context.Background(), "abc123").
			Once().
			Return(&entity.URL{
				Code:        "abc123",
				OriginalURL: "https%3A%2F%2Fexample.com",
				Status:      entity.StatusDisabled,
				ExpiresAt:   suite.now.Add(-time.Hour),
			}, nil)

		url, err := suite.svc.GetURLDetail(context.Background(), "abc123")

		suite.NoError(err)
		suite.NotNil(url)
		suite.Equal(entity.StatusDisabled, url.Status)
	})
}

func (suite *URLServiceTestSuite) TestModifyURL() {
	suite.Run("invalid url", func() {
		url, err := suite.svc.ModifyURL(context.Background(), "abc123", "not-a-url", 30)

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrInvalidInput)
		suite.Nil(url)
		suite.urlRepoMock.AssertNotCalled(suite.T(), "UpdateContent")
	})

	suite.Run("success", func() {
		wantExpiry := suite.now.AddDate(0, 0, 60)

		suite.urlRepoMock.
			On("UpdateContent", context.Background(), "abc123", "https%3A%2F%2Fnew-example.com", wantExpiry, suite.now).
			Once().
			Return(&entity.URL{
				Code:        "abc123",
				OriginalURL: "https%3A%2F%2Fnew-example.com",
				ExpiresAt:   wantExpiry,
				UpdatedAt:   suite.now,
			}, nil)

		url, err := suite.svc.ModifyURL(context.Background(), "abc123", "https://new-example.com", 60)

		suite.NoError(err)
		suite.NotNil(url)
		suite.Equal("https://new-example.com", url.OriginalURL)
		suite.True(url.ExpiresAt.Equal(wantExpiry))
	})
}

func (suite *URLServiceTestSuite) TestUpdateURLStatus() {
	suite.Run("invalid status", func() {
		url, err := suite.svc.UpdateURLStatus(context.Background(), "abc123", entity.Status("expired"))

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrInvalidInput)
		suite.Nil(url)
		suite.urlRepoMock.AssertNotCalled(suite.T(), "SetStatus")
	})

	suite.Run("not found", func() {
		suite.urlRepoMock.
			On("SetStatus", context.Background(), "abc123", entity.StatusDisabled, suite.now).
			Once().
			Return(nil, entity.ErrURLNotFound)

		url, err := suite.svc.UpdateURLStatus(context.Background(), "abc123", entity.StatusDisabled)

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("idempotent enable", func() {
		created := suite.now.Add(-time.Hour)

		suite.urlRepoMock.
			On("SetStatus", context.Background(), "abc123", entity.StatusActive, suite.now).
			Once().
			Return(&entity.URL{
				Code:        "abc123",
				OriginalURL: "https%3A%2F%2Fexample.com",
				Status:      entity.StatusActive,
				ClickCount:  5,
				CreatedAt:   created,
				UpdatedAt:   suite.now,
			}, nil)

		url, err := suite.svc.UpdateURLStatus(context.Background(), "abc123", entity.StatusActive)

		suite.NoError(err)
		suite.NotNil(url)
		suite.Equal(entity.StatusActive, url.Status)
		suite.Equal(int64(5), url.ClickCount)
		suite.True(url.CreatedAt.Equal(created))
	})
}

func (suite *URLServiceTestSuite) TestExtendExpiration() {
	suite.Run("invalid days", func() {
		url, err := suite.svc.ExtendExpiration(context.Background(), "abc123", 0)

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrInvalidInput)
		suite.Nil(url)
		suite.urlRepoMock.AssertNotCalled(suite.T(), "SetExpiry")
	})

	suite.Run("replaces instead of stacking", func() {
		wantExpiry := suite.now.AddDate(0, 0, 30)

		suite.urlRepoMock.
			On("SetExpiry", context.Background(), "abc123", wantExpiry, suite.now).
			Twice().
			Return(&entity.URL{
				Code:        "abc123",
				OriginalURL: "https%3A%2F%2Fexample.com",
				ExpiresAt:   wantExpiry,
			}, nil)

		first, err := suite.svc.ExtendExpiration(context.Background(), "abc123", 30)
		suite.NoError(err)
		second, err := suite.svc.ExtendExpiration(context.Background(), "abc123", 30)
		suite.NoError(err)

		suite.True(first.ExpiresAt.Equal(wantExpiry))
		suite.True(second.ExpiresAt.Equal(wantExpiry))
	})
}

func (suite *URLServiceTestSuite) TestDeactivateURL() {
	suite.Run("not found", func() {
		suite.urlRepoMock.
			On("SoftDelete", context.Background(), "abc123", suite.now).
			Once().
			Return(entity.ErrURLNotFound)

		err := suite.svc.DeactivateURL(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrURLNotFound)
	})

	suite.Run("success", func() {
		suite.urlRepoMock.
			On("SoftDelete", context.Background(), "abc123", suite.now).
			Once().
			Return(nil)

		err := suite.svc.DeactivateURL(context.Background(), "abc123")

		suite.NoError(err)
	})
}

func (suite *URLServiceTestSuite) TestListURLs() {
	suite.Run("unknown error", func() {
		suite.urlRepoMock.
			On("ListByOwner", context.Background(), "owner1").
			Once().
			Return(nil, suite.errUnknown)

		urls, err := suite.svc.ListURLs(context.Background(), "owner1")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(urls)
	})

	suite.Run("success", func() {
		suite.urlRepoMock.
			On("ListByOwner", context.Background(), "owner1").
			Once().
			Return([]*entity.URL{
				{Code: "abc123", OriginalURL: "https%3A%2F%2Fexample.com", Owner: "owner1"},
				{Code: "def456", OriginalURL: "https%3A%2F%2Fexample.org", Owner: "owner1"},
			}, nil)

		urls, err := suite.svc.ListURLs(context.Background(), "owner1")

		suite.NoError(err)
		suite.Len(urls, 2)
		suite.Equal("https://example.com", urls[0].OriginalURL)
		suite.Equal("https://example.org", urls[1].OriginalURL)
	})
}

func TestURLServiceTestSuite(t *testing.T) {
	suite.Run(t, new(URLServiceTestSuite))
}
