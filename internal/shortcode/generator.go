// Package shortcode produces randomized short codes. Codes are drawn from
// an unpredictable randomness source so they cannot be enumerated; they
// are not guaranteed unique — the caller owns collision handling.
package shortcode

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// DefaultAlphabet is the 62-symbol alphanumeric alphabet.
const DefaultAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultLength is the stock code length. Deployments using owner-scoped
// codes switch to length 8 with a reserved two-character prefix.
const DefaultLength = 6

// Generator produces fixed-length codes. An optional prefix reserves the
// leading characters; only the remainder is randomized.
type Generator struct {
	alphabet string
	length   int
	prefix   string
}

// New returns a Generator for codes of the given total length. The prefix
// must be shorter than the length.
func New(alphabet string, length int, prefix string) (*Generator, error) {
	const op = "shortcode.New"

	if alphabet == "" {
		return nil, fmt.Errorf("%s: alphabet cannot be empty", op)
	}
	if length <= len(prefix) {
		return nil, fmt.Errorf("%s: length %d leaves no room after prefix %q", op, length, prefix)
	}

	return &Generator{
		alphabet: alphabet,
		length:   length,
		prefix:   prefix,
	}, nil
}

// Generate returns one code per call.
func (g *Generator) Generate() (string, error) {
	const op = "shortcode.Generator.Generate"

	code, err := gonanoid.Generate(g.alphabet, g.length-len(g.prefix))
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate short code: %w", op, err)
	}

	return g.prefix + code, nil
}
