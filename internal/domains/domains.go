// Package domains checks domain-name availability across common extensions.
package domains

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// Extensions are checked in this order.
var Extensions = []string{".com", ".org", ".edu", ".net", ".io", ".ai", ".biz", ".in"}

var defaultTaken = []string{"ksfoundation.com", "google.com", "facebook.com"}

// ErrEmptyKeyword is returned when the keyword has no usable base name.
var ErrEmptyKeyword = errors.New("keyword is empty")

var (
	ErrUnsupportedExtension = errors.New("unsupported extension")
	ErrDomainTaken          = errors.New("domain is not available")
)

// Result is the availability of one domain.
type Result struct {
	Domain    string  `json:"domain"`
	Available bool    `json:"available"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	Extension string  `json:"extension"`
}

// Checker answers availability questions against a registry of taken names.
type Checker struct {
	mu    sync.RWMutex
	taken map[string]struct{}
}

// NewChecker returns a Checker. Extra taken names are added to the built-in set.
func NewChecker(taken ...string) *Checker {
	c := &Checker{taken: make(map[string]struct{})}
	for _, d := range append(append([]string(nil), defaultTaken...), taken...) {
		c.taken[strings.ToLower(d)] = struct{}{}
	}
	return c
}

// Check returns one result per extension for keyword. Only the part before
// the first dot is used, lowercased.
func (c *Checker) Check(ctx context.Context, keyword string) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base, _, _ := strings.Cut(strings.TrimSpace(keyword), ".")
	base = strings.ToLower(base)
	if base == "" {
		return nil, ErrEmptyKeyword
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	results := make([]Result, 0, len(Extensions))
	for _, ext := range Extensions {
		name := base + ext
		_, taken := c.taken[name]
		results = append(results, Result{
			Domain:    name,
			Available: !taken,
			Price:     price(ext),
			Currency:  "USD",
			Extension: ext,
		})
	}
	return results, nil
}

func price(ext string) float64 {
	switch ext {
	case ".edu":
		return 0
	case ".ai":
		return 60
	case ".org":
		return 8
	}
	return 10
}

// AvailableNames returns the available domain names in order.
func AvailableNames(results []Result) []string {
	var out []string
	for _, r := range results {
		if r.Available {
			out = append(out, r.Domain)
		}
	}
	return out
}

// Registration records a domain claimed through Register.
type Registration struct {
	Domain       string    `json:"domain"`
	Owner        string    `json:"owner"`
	Price        float64   `json:"price"`
	Currency     string    `json:"currency"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Register claims domain for owner. Later checks report it as taken.
func (c *Checker) Register(ctx context.Context, domain, owner string) (Registration, error) {
	if err := ctx.Err(); err != nil {
		return Registration{}, err
	}
	domain = strings.ToLower(strings.TrimSpace(domain))
	base, rest, _ := strings.Cut(domain, ".")
	if base == "" {
		return Registration{}, ErrEmptyKeyword
	}
	ext := "." + rest
	if !slices.Contains(Extensions, ext) {
		return Registration{}, fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, taken := c.taken[domain]; taken {
		return Registration{}, fmt.Errorf("%w: %s", ErrDomainTaken, domain)
	}
	c.taken[domain] = struct{}{}

	slog.Info("domains: registered", "domain", domain, "owner", owner)
	return Registration{
		Domain:       domain,
		Owner:        owner,
		Price:        price(ext),
		Currency:     "USD",
		RegisteredAt: time.Now().UTC(),
	}, nil
}
