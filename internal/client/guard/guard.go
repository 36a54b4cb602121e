// Package guard is the access controller: the only component that turns
// session and entitlement state into a navigation decision. Public routes
// resolve without touching either collaborator, and a check that has been
// superseded by a newer navigation is discarded instead of applied.
package guard

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/reviewd-dev/reviewd/internal/client/entitlement"
	"github.com/reviewd-dev/reviewd/internal/client/session"
)

// Decision is the outcome of a single authorization check
type Decision int

const (
	// DecisionChecking means entitlement is still loading; render a
	// loading indicator, not granted or denied content
	DecisionChecking Decision = iota

	// DecisionAllow renders the route
	DecisionAllow

	// DecisionRedirectToLogin sends the user to login; Outcome.Path holds
	// the originally requested destination to return to afterwards
	DecisionRedirectToLogin

	// DecisionRedirectToUpgrade sends the user to the upgrade call-to-action
	DecisionRedirectToUpgrade

	// DecisionLocked renders the route's locked fallback in place
	DecisionLocked
)

func (d Decision) String() string {
	switch d {
	case DecisionChecking:
		return "checking"
	case DecisionAllow:
		return "allow"
	case DecisionRedirectToLogin:
		return "redirect-to-login"
	case DecisionRedirectToUpgrade:
		return "redirect-to-upgrade"
	case DecisionLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// ErrSuperseded means a newer navigation started before this check
// resolved; the stale decision must not be applied
var ErrSuperseded = errors.New("navigation superseded")

// Outcome is the decision for one navigation. Recomputed per navigation,
// never cached across them.
type Outcome struct {
	Decision Decision
	Path     string // the requested path
	Feature  string // the feature that gated the route, if any
}

// SessionState is the slice of the session manager the guard needs
type SessionState interface {
	Status() session.Status
	VerifySession(ctx context.Context) session.Status
}

// EntitlementSource is the slice of the entitlement resolver the guard needs
type EntitlementSource interface {
	Resolve(ctx context.Context) *entitlement.Profile
	HasFeature(name string) bool
	Loaded() bool
}

// Guard composes the session manager and entitlement resolver into
// per-navigation access decisions
type Guard struct {
	table        *Table
	sessions     SessionState
	entitlements EntitlementSource
	nav          atomic.Uint64
	log          zerolog.Logger
}

// New creates a guard over the given route table
func New(table *Table, sessions SessionState, entitlements EntitlementSource, log zerolog.Logger) *Guard {
	return &Guard{
		table:        table,
		sessions:     sessions,
		entitlements: entitlements,
		log:          log,
	}
}

// CheckRoute decides whether the navigation to path may render. Public
// routes return immediately with no backend traffic. A check superseded by
// a newer navigation returns ErrSuperseded; only the decision for the most
// recently requested path may be applied.
func (g *Guard) CheckRoute(ctx context.Context, path string) (Outcome, error) {
	seq := g.nav.Add(1)
	route := g.table.Lookup(path)

	if route.Public {
		return Outcome{Decision: DecisionAllow, Path: path}, nil
	}

	status := g.sessions.VerifySession(ctx)
	if g.nav.Load() != seq {
		g.log.Debug().Str("path", path).Msg("discarding superseded route check")
		return Outcome{}, ErrSuperseded
	}

	if status != session.StatusAuthenticated {
		return Outcome{Decision: DecisionRedirectToLogin, Path: path}, nil
	}

	if route.Feature == "" {
		return Outcome{Decision: DecisionAllow, Path: path}, nil
	}

	profile := g.entitlements.Resolve(ctx)
	if g.nav.Load() != seq {
		g.log.Debug().Str("path", path).Msg("discarding superseded route check")
		return Outcome{}, ErrSuperseded
	}

	if profile.Has(route.Feature) {
		return Outcome{Decision: DecisionAllow, Path: path, Feature: route.Feature}, nil
	}

	decision := DecisionRedirectToUpgrade
	if route.OnDenied == DeniedLocked {
		decision = DecisionLocked
	}
	g.log.Debug().
		Str("path", path).
		Str("feature", route.Feature).
		Str("plan", profile.PlanName).
		Stringer("decision", decision).
		Msg("feature not in plan")
	return Outcome{Decision: decision, Path: path, Feature: route.Feature}, nil
}

// Snapshot is the non-blocking view used for the first paint: it consults
// only already-known state and reports DecisionChecking while a needed
// answer is still loading, so the UI shows neither granted nor denied
// content prematurely.
func (g *Guard) Snapshot(path string) Outcome {
	route := g.table.Lookup(path)

	if route.Public {
		return Outcome{Decision: DecisionAllow, Path: path}
	}

	switch g.sessions.Status() {
	case session.StatusExchanging:
		return Outcome{Decision: DecisionChecking, Path: path}
	case session.StatusAuthenticated:
	default:
		return Outcome{Decision: DecisionRedirectToLogin, Path: path}
	}

	if route.Feature == "" {
		return Outcome{Decision: DecisionAllow, Path: path}
	}

	if !g.entitlements.Loaded() {
		return Outcome{Decision: DecisionChecking, Path: path, Feature: route.Feature}
	}

	if g.entitlements.HasFeature(route.Feature) {
		return Outcome{Decision: DecisionAllow, Path: path, Feature: route.Feature}
	}

	decision := DecisionRedirectToUpgrade
	if route.OnDenied == DeniedLocked {
		decision = DecisionLocked
	}
	return Outcome{Decision: decision, Path: path, Feature: route.Feature}
}
