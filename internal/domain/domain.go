// Package domain holds the registry's versioned entities. A Domain is the
// long-lived registration record whose every mutation is tracked through the
// commit log and revision index.
package domain

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"annal/internal/revision"
)

// Domain is a registered domain name. The Revisions field is owned by the
// persistence layer: the save hook replaces it on the stored snapshot, and
// application code must never hand-construct entries.
type Domain struct {
	Name         string         `json:"name"`
	TLD          string         `json:"tld"`
	RegistrarID  string         `json:"registrar_id"`
	Registrant   string         `json:"registrant"`
	Nameservers  []string       `json:"nameservers,omitempty"`
	AuthInfoHash string         `json:"-"`
	PeriodYears  int            `json:"period_years"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Revisions    revision.Index `json:"-"`
}

// New builds a domain registration, deriving the TLD from the name.
func New(name, registrarID string, periodYears int) (*Domain, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 || dot == len(name)-1 {
		return nil, fmt.Errorf("domain name %q has no TLD", name)
	}
	if periodYears < 1 {
		return nil, fmt.Errorf("registration period must be at least 1 year, got %d", periodYears)
	}
	if registrarID == "" {
		return nil, fmt.Errorf("registrar is required")
	}
	return &Domain{
		Name:        name,
		TLD:         name[dot+1:],
		RegistrarID: registrarID,
		PeriodYears: periodYears,
	}, nil
}

// EntityKey identifies the domain in the entity store and commit log.
func (d *Domain) EntityKey() string { return d.Name }

// Snapshot returns a structural copy. The save hook mutates only the copy,
// so the caller's instance never observes persistence-layer side effects.
func (d *Domain) Snapshot() *Domain {
	snap := *d
	snap.Nameservers = append([]string(nil), d.Nameservers...)
	return &snap
}

// RevisionIndex returns the current revision index.
func (d *Domain) RevisionIndex() revision.Index { return d.Revisions }

// SetRevisionIndex replaces the revision index. Reserved for the save hook
// and loaders.
func (d *Domain) SetRevisionIndex(idx revision.Index) { d.Revisions = idx }

// TouchTimestamps stamps bookkeeping times at the commit instant. CreatedAt
// auto-initializes on the first save and is immutable afterwards.
func (d *Domain) TouchTimestamps(now time.Time) {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
}

// SetAuthInfo stores a bcrypt hash of the transfer authorization password.
func (d *Domain) SetAuthInfo(password string) error {
	if password == "" {
		return fmt.Errorf("auth info password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash auth info: %w", err)
	}
	d.AuthInfoHash = string(hash)
	return nil
}

// CheckAuthInfo reports whether password matches the stored auth info hash.
func (d *Domain) CheckAuthInfo(password string) bool {
	if d.AuthInfoHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(d.AuthInfoHash), []byte(password)) == nil
}
