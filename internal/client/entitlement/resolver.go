// Package entitlement resolves the active session's subscription plan into
// queryable feature membership. The cache is keyed by session epoch so a
// profile fetched for one login can never answer for the next; everything
// unknown, loading, or failed reads as "no access".
package entitlement

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/reviewd-dev/reviewd/internal/client/api"
)

// Feature names gating routes and UI elements
const (
	FeatureReviewInvitations = "Review Invitations"
	FeatureIntegrations      = "Integrations"
	FeatureAdvancedAnalytics = "Advanced Analytics"
	FeatureCustomBranding    = "Custom Branding"
)

// Profile is a read-only snapshot of the plan-derived capability set
type Profile struct {
	PlanID    string
	PlanName  string
	FetchedAt time.Time

	features map[string]struct{}
}

// Has reports feature membership
func (p *Profile) Has(name string) bool {
	_, ok := p.features[name]
	return ok
}

// Features returns the feature names, sorted
func (p *Profile) Features() []string {
	names := make([]string, 0, len(p.features))
	for name := range p.features {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Empty reports whether the profile grants nothing
func (p *Profile) Empty() bool {
	return len(p.features) == 0
}

func newProfile(cp *api.CompanyProfile) *Profile {
	p := &Profile{
		PlanID:    cp.Plan.ID,
		PlanName:  cp.Plan.Name,
		FetchedAt: time.Now(),
		features:  make(map[string]struct{}, len(cp.Plan.Features)),
	}
	// An empty features array and a missing plan both land here as a
	// zero-feature profile: deny-by-default either way.
	for _, f := range cp.Plan.Features {
		if f.Name != "" {
			p.features[f.Name] = struct{}{}
		}
	}
	return p
}

func emptyProfile() *Profile {
	return &Profile{FetchedAt: time.Now(), features: map[string]struct{}{}}
}

// Fetcher fetches the company profile for the active session
type Fetcher func(ctx context.Context) (*api.CompanyProfile, error)

// EpochSource reports the session epoch, satisfied by *session.Manager
type EpochSource interface {
	Epoch() uint64
}

// Resolver owns the entitlement cache. Concurrent Resolve calls for the
// same session share one outstanding fetch.
type Resolver struct {
	mu          sync.Mutex
	cached      *Profile
	cachedEpoch uint64
	lastErr     error

	fetch   Fetcher
	session EpochSource
	sf      singleflight.Group
	log     zerolog.Logger
}

// NewResolver creates a resolver with an empty cache
func NewResolver(fetch Fetcher, session EpochSource, log zerolog.Logger) *Resolver {
	return &Resolver{
		fetch:   fetch,
		session: session,
		log:     log,
	}
}

// Resolve returns the entitlement profile for the active session, fetching
// only when nothing valid is cached. A failed fetch degrades to a
// zero-feature profile; the failure is recorded but not cached, so the
// next query retries lazily. Never returns nil and never propagates an
// error into rendering code.
func (r *Resolver) Resolve(ctx context.Context) *Profile {
	epoch := r.session.Epoch()

	r.mu.Lock()
	if r.cached != nil && r.cachedEpoch == epoch {
		cached := r.cached
		r.mu.Unlock()
		return cached
	}
	r.mu.Unlock()

	v, err, _ := r.sf.Do(fmt.Sprintf("profile:%d", epoch), func() (interface{}, error) {
		cp, err := r.fetch(ctx)
		if err != nil {
			return nil, err
		}

		profile := newProfile(cp)

		r.mu.Lock()
		// Only cache when the session hasn't moved on mid-fetch
		if r.session.Epoch() == epoch {
			r.cached = profile
			r.cachedEpoch = epoch
			r.lastErr = nil
		}
		r.mu.Unlock()

		return profile, nil
	})
	if err != nil {
		r.mu.Lock()
		r.lastErr = err
		r.mu.Unlock()
		r.log.Warn().Err(err).Msg("entitlement fetch failed, denying by default")
		return emptyProfile()
	}

	return v.(*Profile)
}

// HasFeature is a pure lookup against the cached profile. It answers false
// while nothing is loaded for the current session, biasing toward the
// denied state during the loading window.
func (r *Resolver) HasFeature(name string) bool {
	epoch := r.session.Epoch()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached == nil || r.cachedEpoch != epoch {
		return false
	}
	return r.cached.Has(name)
}

// Loaded reports whether a profile is cached for the current session
func (r *Resolver) Loaded() bool {
	epoch := r.session.Epoch()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cached != nil && r.cachedEpoch == epoch
}

// Invalidate drops the cached profile. Called on logout and on plan-change
// notifications (e.g. post-checkout).
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = nil
	r.lastErr = nil
}

// LastError returns the most recent fetch failure, for observability
func (r *Resolver) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}
