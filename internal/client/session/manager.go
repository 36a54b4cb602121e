// Package session owns the client's authentication state machine. The
// manager is the single authority for transitions; every other component
// reads state through it. The backend is always the source of truth: the
// persisted hint only shapes the first optimistic render and never
// overrides a negative backend answer.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/reviewd-dev/reviewd/internal/client/api"
	"github.com/reviewd-dev/reviewd/internal/client/credentials"
)

// Status is the client's belief about authentication validity
type Status int

const (
	// StatusUnauthenticated is the initial state and the state after
	// logout or an authoritative 401
	StatusUnauthenticated Status = iota

	// StatusExchanging means a one-time code is being redeemed
	StatusExchanging

	// StatusAuthenticated means the backend confirmed the session
	StatusAuthenticated

	// StatusFailed is the transient state after a rejected exchange; it
	// resolves to StatusUnauthenticated as soon as the result is delivered
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusExchanging:
		return "exchanging"
	case StatusAuthenticated:
		return "authenticated"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Exchange failure reason codes
const (
	ReasonInvalidToken = "invalid_token"
	ReasonExpiredToken = "expired_token"
	ReasonNetworkError = "network_error"
)

// defaultVerifyWindow is how long a positive verification is reused before
// the next VerifySession call round-trips again
const defaultVerifyWindow = 10 * time.Second

// Backend is the slice of the API client the manager needs
type Backend interface {
	Login(ctx context.Context, email, password string) (*api.AuthResult, error)
	ExchangeToken(ctx context.Context, state string) (*api.AuthResult, error)
	Me(ctx context.Context, token string) (*api.Identity, error)
	Logout(ctx context.Context, token string) error
}

// CredentialStore persists the token and the advisory hint
type CredentialStore interface {
	SaveToken(token string) error
	LoadToken() (string, error)
	WriteHint(hint credentials.Hint) error
	ReadHint() credentials.Hint
	Clear() error
}

// ExchangeResult is the outcome of redeeming a one-time token
type ExchangeResult struct {
	Status   Status
	Reason   string // set when Status == StatusFailed
	Identity *api.Identity
}

// Manager is the authentication state machine. Safe for concurrent use;
// duplicate in-flight exchanges of the same token and overlapping
// verifications are coalesced into one backend call.
type Manager struct {
	mu           sync.Mutex
	status       Status
	identity     *api.Identity
	epoch        uint64
	lastVerified time.Time
	verifyWindow time.Duration

	backend Backend
	creds   CredentialStore
	sf      singleflight.Group
	log     zerolog.Logger
}

// NewManager creates a manager in the Unauthenticated state
func NewManager(backend Backend, creds CredentialStore, log zerolog.Logger) *Manager {
	return &Manager{
		status:       StatusUnauthenticated,
		verifyWindow: defaultVerifyWindow,
		backend:      backend,
		creds:        creds,
		log:          log,
	}
}

// SetVerifyWindow overrides the verification reuse window, used by tests
func (m *Manager) SetVerifyWindow(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifyWindow = d
}

// Status returns the current state without touching the backend
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Identity returns the backend-confirmed identity, non-nil iff the status
// is StatusAuthenticated
func (m *Manager) Identity() *api.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity
}

// Epoch increments on every session boundary (login, logout, forced
// clear). Caches keyed by epoch can never serve data from a previous,
// different session.
func (m *Manager) Epoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}

// Hint returns the persisted advisory snapshot for the initial optimistic
// render. Never use it for an access decision.
func (m *Manager) Hint() credentials.Hint {
	return m.creds.ReadHint()
}

// establish records a confirmed session: token saved, identity set, epoch
// bumped, hint persisted. Caller must not hold m.mu.
func (m *Manager) establish(result *api.AuthResult) {
	if err := m.creds.SaveToken(result.Token); err != nil {
		m.log.Warn().Err(err).Msg("failed to save token")
	}

	m.mu.Lock()
	m.status = StatusAuthenticated
	identity := result.Identity
	m.identity = &identity
	m.epoch++
	m.lastVerified = time.Now()
	m.mu.Unlock()

	m.writeHint(&identity)
}

func (m *Manager) writeHint(identity *api.Identity) {
	hint := credentials.Hint{
		Authenticated: true,
		UserID:        identity.ID,
		Email:         identity.Email,
		Name:          identity.Name,
		CompanyID:     identity.CompanyID,
	}
	if err := m.creds.WriteHint(hint); err != nil {
		m.log.Warn().Err(err).Msg("failed to persist session hint")
	}
}

// clear drops the session locally: identity, hint, and token are gone and
// the epoch moves forward. Caller must not hold m.mu.
func (m *Manager) clear() {
	m.mu.Lock()
	m.status = StatusUnauthenticated
	m.identity = nil
	m.epoch++
	m.lastVerified = time.Time{}
	m.mu.Unlock()

	if err := m.creds.Clear(); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear credentials")
	}
}

// Login authenticates with email and password
func (m *Manager) Login(ctx context.Context, email, password string) (*api.Identity, error) {
	result, err := m.backend.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	m.establish(result)
	m.log.Debug().Str("user_id", result.Identity.ID).Msg("session established via password login")

	identity := result.Identity
	return &identity, nil
}

// BeginExchange redeems a one-time magic-link state token. Duplicate
// concurrent calls with the same token join the in-flight backend call
// instead of issuing a second one. Failures come back as a reason code,
// never as an error the rendering layer has to handle; the Failed state is
// delivered in the result and the machine settles back to Unauthenticated.
func (m *Manager) BeginExchange(ctx context.Context, state string) ExchangeResult {
	m.mu.Lock()
	if m.status == StatusUnauthenticated || m.status == StatusFailed {
		m.status = StatusExchanging
	}
	m.mu.Unlock()

	v, _, _ := m.sf.Do("exchange:"+state, func() (interface{}, error) {
		result, err := m.backend.ExchangeToken(ctx, state)
		if err != nil {
			reason := ReasonNetworkError
			switch {
			case errors.Is(err, api.ErrTokenInvalid), errors.Is(err, api.ErrUnauthorized):
				reason = ReasonInvalidToken
			case errors.Is(err, api.ErrTokenExpired):
				reason = ReasonExpiredToken
			}
			m.log.Warn().Str("reason", reason).Err(err).Msg("token exchange rejected")

			// Failed is transient: returning the result is the
			// acknowledgment, so the machine settles back to
			// Unauthenticated with the hint gone.
			m.clear()
			return ExchangeResult{Status: StatusFailed, Reason: reason}, nil
		}

		m.establish(result)
		m.log.Debug().Str("user_id", result.Identity.ID).Msg("session established via token exchange")

		identity := result.Identity
		return ExchangeResult{Status: StatusAuthenticated, Identity: &identity}, nil
	})

	return v.(ExchangeResult)
}

// VerifySession confirms the session against the backend, reusing a recent
// positive answer within the verify window. An explicit unauthorized
// answer clears local state even when the hint said otherwise; a network
// failure leaves the current state untouched (unknown, not denied).
func (m *Manager) VerifySession(ctx context.Context) Status {
	m.mu.Lock()
	if m.status == StatusAuthenticated && time.Since(m.lastVerified) < m.verifyWindow {
		status := m.status
		m.mu.Unlock()
		return status
	}
	m.mu.Unlock()

	v, _, _ := m.sf.Do("verify", func() (interface{}, error) {
		token, err := m.creds.LoadToken()
		if err != nil {
			if !errors.Is(err, credentials.ErrNotAuthenticated) {
				m.log.Warn().Err(err).Msg("failed to load token")
			}
			m.mu.Lock()
			m.status = StatusUnauthenticated
			m.identity = nil
			m.mu.Unlock()
			return StatusUnauthenticated, nil
		}

		identity, err := m.backend.Me(ctx, token)
		switch {
		case err == nil:
			m.mu.Lock()
			m.status = StatusAuthenticated
			m.identity = identity
			m.lastVerified = time.Now()
			m.mu.Unlock()
			m.writeHint(identity)
			return StatusAuthenticated, nil

		case errors.Is(err, api.ErrUnauthorized):
			// Authoritative negative: the hint was stale
			m.log.Debug().Msg("backend reported unauthorized, clearing session")
			m.clear()
			return StatusUnauthenticated, nil

		default:
			// No response; keep the current belief
			m.log.Warn().Err(err).Msg("session verification unreachable")
			m.mu.Lock()
			status := m.status
			m.mu.Unlock()
			return status, nil
		}
	})

	return v.(Status)
}

// Logout invalidates the session. The backend call is best-effort; local
// state always ends up Unauthenticated.
func (m *Manager) Logout(ctx context.Context) {
	if token, err := m.creds.LoadToken(); err == nil {
		if err := m.backend.Logout(ctx, token); err != nil {
			m.log.Warn().Err(err).Msg("backend logout failed, clearing locally anyway")
		}
	}
	m.clear()
}
