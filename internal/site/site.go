// Package site defines the tenant ("site") record and the contract its
// persistent store must satisfy.
package site

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a site. Only active sites resolve;
// every other value behaves as if the record were absent.
type Status int

const (
	StatusInactive Status = 0
	StatusActive   Status = 1
	StatusArchived Status = 2
)

// Site is one customer's logical application instance, addressed by a
// subdomain of the base application domain or by its own custom domain.
type Site struct {
	ID           uuid.UUID
	Reference    int64
	Name         string
	Subdomain    string
	CustomDomain string
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive reports whether the site may resolve for inbound traffic.
func (s *Site) IsActive() bool {
	return s.Status == StatusActive
}

var (
	// ErrSiteNotFound is returned when no active site matches a lookup.
	// It is a normal outcome, distinct from store failures.
	ErrSiteNotFound = errors.New("site not found")

	// ErrSubdomainTaken is returned when a write would give two active
	// sites the same subdomain.
	ErrSubdomainTaken = errors.New("subdomain already in use")

	// ErrCustomDomainTaken is returned when a write would give two active
	// sites the same custom domain.
	ErrCustomDomainTaken = errors.New("custom domain already in use")
)

// Repository is the site store contract. Lookups by host return at most one
// row: uniqueness of active subdomains and custom domains is enforced by
// the store itself.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Site, error)
	// GetBySubdomain returns the active site holding the given subdomain
	// token, or ErrSiteNotFound.
	GetBySubdomain(ctx context.Context, subdomain string) (*Site, error)
	// GetByCustomDomain returns the active site holding the given FQDN,
	// or ErrSiteNotFound.
	GetByCustomDomain(ctx context.Context, domain string) (*Site, error)
	Create(ctx context.Context, s *Site) (*Site, error)
	Update(ctx context.Context, s *Site) (*Site, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns all sites ordered by reference number.
	List(ctx context.Context) ([]*Site, error)
}

var (
	subdomainPattern    = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)
	customDomainPattern = regexp.MustCompile(`^(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`)
)

// ValidateSubdomain checks the subdomain token format: lowercase
// alphanumerics and hyphens, no leading or trailing hyphen.
func ValidateSubdomain(s string) error {
	if s == "" {
		return errors.New("subdomain is required")
	}
	if !subdomainPattern.MatchString(s) {
		return errors.New("subdomain must be lowercase alphanumeric with hyphens, no leading or trailing hyphen")
	}
	return nil
}

// ValidateCustomDomain checks a fully qualified domain name. An empty value
// is valid: custom domains are optional.
func ValidateCustomDomain(s string) error {
	if s == "" {
		return nil
	}
	if !customDomainPattern.MatchString(s) {
		return errors.New("invalid domain format")
	}
	return nil
}
