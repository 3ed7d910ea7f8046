package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/ajkumarray/margdarshak/internal/entity"
	"github.com/ajkumarray/margdarshak/pkg/response"
)

// handlePing handles health check requests to ensure the server is running.
func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

// urlRequest represents the request payload for creating or updating a
// shortened URL. Expiration bounds are enforced by the business layer, so
// only the request shape is validated here.
type urlRequest struct {
	URL            string `json:"url" validate:"required"`
	ExpirationDays int    `json:"expiration_days" validate:"required"`
}

// statusRequest carries the target status for a status change.
type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

// expiryRequest carries the replacement expiration window.
type expiryRequest struct {
	ExpirationDays int `json:"expiration_days" validate:"required"`
}

// urlResponse represents the response payload for a shortened URL operation.
type urlResponse struct {
	Code           string     `json:"code"`
	URL            string     `json:"url"`
	ShortURL       string     `json:"short_url"`
	Owner          string     `json:"owner,omitempty"`
	Status         string     `json:"status"`
	ClickCount     int64      `json:"click_count"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	ExpiresAt      time.Time  `json:"expires_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// toURLResponse converts a URL record from the business layer into a
// response payload.
func toURLResponse(url *entity.URL) urlResponse {
	return urlResponse{
		Code:           url.Code,
		URL:            url.OriginalURL,
		ShortURL:       url.ShortURL,
		Owner:          url.Owner,
		Status:         string(url.Status),
		ClickCount:     url.ClickCount,
		LastAccessedAt: url.LastAccessedAt,
		ExpiresAt:      url.ExpiresAt,
		CreatedAt:      url.CreatedAt,
		UpdatedAt:      url.UpdatedAt,
	}
}

// decodeBody decodes the JSON request body into dst and validates its
// shape, rendering the appropriate error response on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		if errors.Is(err, io.EOF) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.EmptyRequestBodyResponse)
			return false
		}

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.BadRequestResponse)
		return false
	}

	if err := validate.Struct(dst); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationErrorResponse(err))
		return false
	}

	return true
}

// renderServiceError maps business-layer errors onto HTTP responses.
// Rejected input becomes a 400 carrying the reason, a missing record
// becomes a 404, and everything else is logged and reported as a 500.
func renderServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, entity.ErrInvalidInput):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.InvalidInputResponse(err))
	case errors.Is(err, entity.ErrURLNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.ResourceNotFoundResponse)
	default:
		httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerErrorResponse)
	}
}

// handleShortenURL handles POST requests to shorten a URL.
//
// The request must contain the original URL and an expiration window in
// days. The handler calls the URL shortening service and returns the
// generated short code with relevant metadata.
func handleShortenURL(svc URLService, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleShortenURL"
	const successMsg = "The URL has been shortened successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		var req urlRequest
		if !decodeBody(w, r, validate, &req) {
			return
		}

		owner, _ := OwnerFromContext(r.Context())

		url, err := svc.ShortenURL(r.Context(), req.URL, req.ExpirationDays, owner)
		if err != nil {
			renderServiceError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(successMsg, toURLResponse(url)))
	}
}

// handleRedirect handles GET requests on a short code and redirects the
// client to the original URL. Disabled, expired, deleted and unknown
// codes all produce the same 404.
func handleRedirect(svc URLService) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		originalURL, err := svc.ResolveShortCode(r.Context(), code)
		if err != nil {
			renderServiceError(w, r, op, err)
			return
		}

		http.Redirect(w, r, originalURL, http.StatusFound)
	}
}

// handleGetURLDetail handles GET requests to inspect a URL record.
//
// Unlike resolution, inspection works on disabled and expired records,
// so owners can see why a link stopped working.
func handleGetURLDetail(svc URLService) http.HandlerFunc {
	const op = "api.http.handleGetURLDetail"
	const successMsg = "The URL details retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		url, err := svc.GetURLDetail(r.Context(), code)
		if err != nil {
			renderServiceError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toURLResponse(url)))
	}
}

// handleGetURLStats handles GET requests to retrieve usage statistics for
// a shortened URL. Statistics are only served while the URL resolves.
func handleGetURLStats(svc URLService) http.HandlerFunc {
	const op = "api.http.handleGetURLStats"
	const successMsg = "The URL statistics retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		url, err := svc.GetURLStats(r.Context(), code)
		if err != nil {
			renderServiceError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toURLResponse(url)))
	}
}

// handleModifyURL handles PUT requests to replace the destination and
// expiration window of an existing URL.
func handleModifyURL(svc URLService, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleModifyURL"
	const successMsg = "The URL was successfully modified."

	return func(w http.ResponseWriter, r *http.Request) {
		var req urlRequest
		if !decodeBody(w, r, validate, &req) {
			return
		}

		code := chi.URLParam(r, "code")

		url, err := svc.ModifyURL(r.Context(), code, req.URL, req.ExpirationDays)
		if err != nil {
			renderServiceError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toURLResponse(url)))
	}
}

// handleUpdateURLStatus handles PATCH requests to enable or disable a URL.
// Setting the status a record already has is not an error.
func handleUpdateURLStatus(svc URLService, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleUpdateURLStatus"
	const successMsg = "The URL status was successfully updated."

	return func(w http.ResponseWriter, r *http.Request) {
		var req statusRequest
		if !decodeBody(w, r, validate, &req) {
			return
		}

		code := chi.URLParam(r, "code")

		url, err := svc.UpdateURLStatus(r.Context(), code, entity.Status(req.Status))
		if err != nil {
			renderServiceError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toURLResponse(url)))
	}
}

// handleExtendExpiration handles PATCH requests to restart the expiration
// window of a URL. The new window replaces the old one instead of being
// added to it.
func handleExtendExpiration(svc URLService, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleExtendExpiration"
	const successMsg = "The URL expiration was successfully extended."

	return func(w http.ResponseWriter, r *http.Request) {
		var req expiryRequest
		if !decodeBody(w, r, validate, &req) {
			return
		}

		code := chi.URLParam(r, "code")

		url, err := svc.ExtendExpiration(r.Context(), code, req.ExpirationDays)
		if err != nil {
			renderServiceError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toURLResponse(url)))
	}
}

// handleDeactivateURL handles DELETE requests to deactivate the URL.
//
// Once deactivated, the URL will no longer be functional and its short
// code is never handed out again.
func handleDeactivateURL(svc URLService) http.HandlerFunc {
	const op = "api.http.handleDeactivateURL"
	const successMsg = "The URL was successfully deactivated."

	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		if err := svc.DeactivateURL(r.Context(), code); err != nil {
			renderServiceError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg))
	}
}

// handleListURLs handles GET requests to list the caller's active URLs.
func handleListURLs(svc URLService) http.HandlerFunc {
	const op = "api.http.handleListURLs"
	const successMsg = "The URLs retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		owner, _ := OwnerFromContext(r.Context())

		urls, err := svc.ListURLs(r.Context(), owner)
		if err != nil {
			renderServiceError(w, r, op, err)
			return
		}

		data := make([]urlResponse, 0, len(urls))
		for _, url := range urls {
			data = append(data, toURLResponse(url))
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, data))
	}
}
