// Package entity defines the URL record at the heart of the shortener,
// its status values and the error taxonomy shared across layers.
package entity

import (
	"errors"
	"time"
)

var (
	// ErrInvalidInput is returned when a caller supplies a malformed URL
	// or an out-of-range expiration period.
	ErrInvalidInput = errors.New("invalid input")
	// ErrCodeExists is returned by a store when an insert collides with
	// an existing short code.
	ErrCodeExists = errors.New("short code exists")
	// ErrURLNotFound is returned when no visible record matches a short code.
	// On the redirect path it also covers disabled and expired records, so
	// callers cannot probe whether a code exists.
	ErrURLNotFound = errors.New("url not found")
	// ErrCodeExhausted is returned when a unique short code could not be
	// generated within the retry bound.
	ErrCodeExhausted = errors.New("short code generation retries exhausted")
	// ErrStorage marks unexpected failures from the record store. The engine
	// never retries these.
	ErrStorage = errors.New("storage failure")
)

// Status governs whether a record may satisfy redirects, independent of
// its expiration.
type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

// Valid reports whether s is one of the known status values.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusDisabled
}

// URL represents a shortened URL record.
type URL struct {
	ID             int64      // ID is the surrogate key assigned by the store.
	Code           string     // Code is the unique short identifier, immutable once created.
	OriginalURL    string     // OriginalURL is the target URL, stored percent-encoded.
	ShortURL       string     // ShortURL is the full shortened link (base URL + code).
	Owner          string     // Owner is the opaque identity of the creator.
	Status         Status     // Status is active or disabled.
	ClickCount     int64      // ClickCount counts successful redirect resolutions.
	LastAccessedAt *time.Time // LastAccessedAt is nil until the first successful resolution.
	ExpiresAt      time.Time  // ExpiresAt is the redirect cutoff; extensions replace it.
	CreatedAt      time.Time  // CreatedAt is set once at creation.
	UpdatedAt      time.Time  // UpdatedAt is bumped on every mutation.
	Deleted        bool       // Deleted marks the record as soft-deleted.
	DeletedAt      *time.Time // DeletedAt is the soft-deletion timestamp.
}

// Resolvable reports whether the record may satisfy a redirect at the
// given instant: active, unexpired and not deleted.
func (u *URL) Resolvable(now time.Time) bool {
	return !u.Deleted && u.Status == StatusActive && u.ExpiresAt.After(now)
}

// Clone returns a deep copy so stores can hand out records without
// sharing mutable state with callers.
func (u *URL) Clone() *URL {
	cp := *u

	if u.LastAccessedAt != nil {
		t := *u.LastAccessedAt
		cp.LastAccessedAt = &t
	}
	if u.DeletedAt != nil {
		t := *u.DeletedAt
		cp.DeletedAt = &t
	}

	return &cp
}
