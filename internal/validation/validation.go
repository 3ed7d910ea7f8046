// Package validation holds the engine-level input rules: URL shape and
// expiration-day bounds. The functions are pure and carry their limits
// explicitly, so there is no process-wide configuration state.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ajkumarray/margdarshak/internal/entity"
)

// urlPattern accepts http(s) URLs with a dot-separated host and an
// optional path/query part.
const urlPattern = `^https?://(www\.)?[-a-zA-Z0-9@:%._+~#=]{1,256}\.[a-zA-Z0-9()]{1,6}([-a-zA-Z0-9()@:%_+.~#?&/=]*)$`

var urlRegexp = regexp.MustCompile(urlPattern)

// blockedSchemes are rejected as case-insensitive substrings anywhere in
// the URL, not just as a leading scheme. Payloads hiding a script scheme
// behind a valid-looking host still fail.
var blockedSchemes = []string{"javascript:", "data:", "vbscript:"}

// Limits bounds the values the validator accepts. Deployments may narrow
// or widen them through configuration.
type Limits struct {
	MaxURLLength      int
	MinExpirationDays int
	MaxExpirationDays int
}

// DefaultLimits returns the stock limits: 2048-character URLs and an
// expiration window of 1 to 365 days.
func DefaultLimits() Limits {
	return Limits{
		MaxURLLength:      2048,
		MinExpirationDays: 1,
		MaxExpirationDays: 365,
	}
}

// Validator checks creation and update input before it reaches storage.
type Validator struct {
	limits Limits
}

// New returns a Validator enforcing the given limits.
func New(limits Limits) *Validator {
	return &Validator{limits: limits}
}

// ValidateURL rejects blank, malformed, oversized and scheme-confused URLs.
// All failures wrap entity.ErrInvalidInput.
func (v *Validator) ValidateURL(rawURL string) error {
	const op = "validation.Validator.ValidateURL"

	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("%s: %w: url cannot be empty", op, entity.ErrInvalidInput)
	}

	if len(rawURL) > v.limits.MaxURLLength {
		return fmt.Errorf("%s: %w: url exceeds %d characters", op, entity.ErrInvalidInput, v.limits.MaxURLLength)
	}

	if !urlRegexp.MatchString(rawURL) {
		return fmt.Errorf("%s: %w: invalid url format", op, entity.ErrInvalidInput)
	}

	lower := strings.ToLower(rawURL)
	for _, scheme := range blockedSchemes {
		if strings.Contains(lower, scheme) {
			return fmt.Errorf("%s: %w: invalid url scheme", op, entity.ErrInvalidInput)
		}
	}

	return nil
}

// ValidateExpirationDays rejects values outside the configured window.
func (v *Validator) ValidateExpirationDays(days int) error {
	const op = "validation.Validator.ValidateExpirationDays"

	if days < v.limits.MinExpirationDays || days > v.limits.MaxExpirationDays {
		return fmt.Errorf("%s: %w: expiration days must be between %d and %d",
			op, entity.ErrInvalidInput, v.limits.MinExpirationDays, v.limits.MaxExpirationDays)
	}

	return nil
}
