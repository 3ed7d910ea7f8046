// Package http provides the HTTP delivery layer for the URL lifecycle
// service. It contains the handlers, the owner authentication middleware
// and the router wiring them together.
package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/ajkumarray/margdarshak/internal/entity"
)

// URLService defines the interface for the core URL lifecycle business logic.
type URLService interface {
	// ShortenURL creates a shortened version of the provided original URL,
	// expiring after the given number of days and owned by the caller.
	ShortenURL(ctx context.Context, originalURL string, expirationDays int, owner string) (*entity.URL, error)

	// ResolveShortCode returns the original URL for a resolvable short code
	// and registers the hit.
	ResolveShortCode(ctx context.Context, code string) (string, error)

	// GetURLDetail retrieves the full record behind the short code, whether
	// or not it currently resolves.
	GetURLDetail(ctx context.Context, code string) (*entity.URL, error)

	// GetURLStats retrieves the usage statistics of a resolvable URL.
	GetURLStats(ctx context.Context, code string) (*entity.URL, error)

	// ModifyURL replaces the destination and expiration window of the URL.
	ModifyURL(ctx context.Context, code, newURL string, expirationDays int) (*entity.URL, error)

	// UpdateURLStatus enables or disables the URL.
	UpdateURLStatus(ctx context.Context, code string, status entity.Status) (*entity.URL, error)

	// ExtendExpiration restarts the expiration window of the URL.
	ExtendExpiration(ctx context.Context, code string, days int) (*entity.URL, error)

	// DeactivateURL disables the URL permanently, reserving its short code.
	DeactivateURL(ctx context.Context, code string) error

	// ListURLs returns the caller's active URLs in creation order.
	ListURLs(ctx context.Context, owner string) ([]*entity.URL, error)
}

// getValidate initializes a new validator instance for validating incoming
// request payloads. It customizes tag name extraction from struct fields to
// match JSON tags.
func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter initializes and returns a new HTTP router with all routes and
// middleware configured. Management routes under /api/v1/urls require a
// bearer token signed with jwtSecret; redirects are public.
func NewRouter(logger *httplog.Logger, urlSvc URLService, jwtSecret string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept", "Authorization"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger.yml")
	})

	r.Get("/{code}", handleRedirect(urlSvc))

	r.Route("/api/v1", func(r chi.Router) {
		validate := getValidate()

		r.Get("/ping", handlePing)

		r.Route("/urls", func(r chi.Router) {
			r.Use(Authenticator(jwtSecret))

			r.Post("/", handleShortenURL(urlSvc, validate))
			r.Get("/", handleListURLs(urlSvc))

			r.Route("/{code}", func(r chi.Router) {
				r.Get("/", handleGetURLDetail(urlSvc))
				r.Put("/", handleModifyURL(urlSvc, validate))
				r.Delete("/", handleDeactivateURL(urlSvc))
				r.Get("/stats", handleGetURLStats(urlSvc))
				r.Patch("/status", handleUpdateURLStatus(urlSvc, validate))
				r.Patch("/expiry", handleExtendExpiration(urlSvc, validate))
			})
		})
	})

	return r
}
