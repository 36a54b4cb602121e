package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/reviewd-dev/reviewd/internal/client/api"
	"github.com/reviewd-dev/reviewd/internal/client/credentials"
)

// fakeCreds is an in-memory credential store for testing
type fakeCreds struct {
	mu       sync.Mutex
	token    string
	hasToken bool
	hint     credentials.Hint
}

func (f *fakeCreds) SaveToken(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
	f.hasToken = true
	return nil
}

func (f *fakeCreds) LoadToken() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.hasToken {
		return "", credentials.ErrNotAuthenticated
	}
	return f.token, nil
}

func (f *fakeCreds) WriteHint(hint credentials.Hint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hint = hint
	return nil
}

func (f *fakeCreds) ReadHint() credentials.Hint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hint
}

func (f *fakeCreds) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.hasToken = false
	f.hint = credentials.Hint{}
	return nil
}

// fakeBackend is a scriptable backend for testing
type fakeBackend struct {
	mu sync.Mutex

	loginResult *api.AuthResult
	loginErr    error

	exchangeCalls  int
	exchangeGate   chan struct{} // when set, ExchangeToken blocks until closed
	exchangeResult *api.AuthResult
	exchangeErr    error

	meCalls    int
	meIdentity *api.Identity
	meErr      error

	logoutCalls int
	logoutErr   error
}

func (f *fakeBackend) Login(ctx context.Context, email, password string) (*api.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginResult, f.loginErr
}

func (f *fakeBackend) ExchangeToken(ctx context.Context, state string) (*api.AuthResult, error) {
	f.mu.Lock()
	f.exchangeCalls++
	gate := f.exchangeGate
	result, err := f.exchangeResult, f.exchangeErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return result, err
}

func (f *fakeBackend) Me(ctx context.Context, token string) (*api.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	return f.meIdentity, f.meErr
}

func (f *fakeBackend) Logout(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	return f.logoutErr
}

func testIdentity() api.Identity {
	return api.Identity{
		ID:        "usr_01",
		Email:     "owner@acme.test",
		Name:      "Acme Owner",
		Role:      "business",
		CompanyID: "cmp_01",
	}
}

func newTestManager(backend *fakeBackend, creds *fakeCreds) *Manager {
	return NewManager(backend, creds, zerolog.Nop())
}

func TestBeginExchange_Success(t *testing.T) {
	backend := &fakeBackend{
		exchangeResult: &api.AuthResult{Token: "tok-abc", Identity: testIdentity()},
	}
	creds := &fakeCreds{}
	m := newTestManager(backend, creds)

	epochBefore := m.Epoch()
	result := m.BeginExchange(context.Background(), "state-1")

	if result.Status != StatusAuthenticated {
		t.Fatalf("expected authenticated, got %s", result.Status)
	}
	if result.Identity == nil || result.Identity.Email != "owner@acme.test" {
		t.Errorf("unexpected identity: %+v", result.Identity)
	}
	if m.Status() != StatusAuthenticated {
		t.Errorf("manager status = %s, want authenticated", m.Status())
	}
	if m.Epoch() == epochBefore {
		t.Error("epoch should advance on a new session")
	}

	token, err := creds.LoadToken()
	if err != nil || token != "tok-abc" {
		t.Errorf("token not persisted: %q, %v", token, err)
	}
	hint := creds.ReadHint()
	if !hint.Authenticated || hint.Email != "owner@acme.test" {
		t.Errorf("hint not persisted: %+v", hint)
	}
}

func TestBeginExchange_DuplicateCallsShareOneRequest(t *testing.T) {
	gate := make(chan struct{})
	backend := &fakeBackend{
		exchangeGate:   gate,
		exchangeResult: &api.AuthResult{Token: "tok-abc", Identity: testIdentity()},
	}
	m := newTestManager(backend, &fakeCreds{})

	const callers = 5
	results := make(chan ExchangeResult, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- m.BeginExchange(context.Background(), "state-1")
		}()
	}

	// Wait for the first call to reach the backend, then confirm the
	// machine reports the in-progress state before releasing it
	deadline := time.After(2 * time.Second)
	for m.Status() != StatusExchanging {
		select {
		case <-deadline:
			t.Fatal("manager never entered the exchanging state")
		case <-time.After(time.Millisecond):
		}
	}
	close(gate)
	wg.Wait()
	close(results)

	for result := range results {
		if result.Status != StatusAuthenticated {
			t.Errorf("caller got %s, want authenticated", result.Status)
		}
	}

	backend.mu.Lock()
	calls := backend.exchangeCalls
	backend.mu.Unlock()
	if calls != 1 {
		t.Errorf("backend saw %d exchange calls, want 1", calls)
	}
}

func TestBeginExchange_RejectedToken(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantReason string
	}{
		{"consumed or unknown token", api.ErrTokenInvalid, ReasonInvalidToken},
		{"expired token", api.ErrTokenExpired, ReasonExpiredToken},
		{"unauthorized", api.ErrUnauthorized, ReasonInvalidToken},
		{"network failure", errors.New("connection refused"), ReasonNetworkError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{exchangeErr: tt.err}
			creds := &fakeCreds{}
			creds.WriteHint(credentials.Hint{Authenticated: true, Email: "stale@acme.test"})
			m := newTestManager(backend, creds)

			result := m.BeginExchange(context.Background(), "state-bad")

			if result.Status != StatusFailed {
				t.Fatalf("result status = %s, want failed", result.Status)
			}
			if result.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", result.Reason, tt.wantReason)
			}
			// Failed is transient: the machine has already settled
			if m.Status() != StatusUnauthenticated {
				t.Errorf("manager status = %s, want unauthenticated", m.Status())
			}
			if hint := creds.ReadHint(); hint.Authenticated {
				t.Errorf("stale hint survived a rejected exchange: %+v", hint)
			}
		})
	}
}

func TestVerifySession_NoToken(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestManager(backend, &fakeCreds{})

	if status := m.VerifySession(context.Background()); status != StatusUnauthenticated {
		t.Errorf("status = %s, want unauthenticated", status)
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if backend.meCalls != 0 {
		t.Errorf("backend called %d times without a token", backend.meCalls)
	}
}

func TestVerifySession_UnauthorizedClearsStaleState(t *testing.T) {
	identity := testIdentity()
	backend := &fakeBackend{meErr: api.ErrUnauthorized}
	creds := &fakeCreds{}
	creds.SaveToken("tok-stale")
	creds.WriteHint(credentials.Hint{Authenticated: true, UserID: identity.ID, Email: identity.Email})
	m := newTestManager(backend, creds)

	epochBefore := m.Epoch()
	if status := m.VerifySession(context.Background()); status != StatusUnauthenticated {
		t.Fatalf("status = %s, want unauthenticated", status)
	}
	if m.Identity() != nil {
		t.Error("identity should be gone after an authoritative 401")
	}
	if hint := creds.ReadHint(); hint.Authenticated {
		t.Errorf("hint should be cleared: %+v", hint)
	}
	if _, err := creds.LoadToken(); !errors.Is(err, credentials.ErrNotAuthenticated) {
		t.Errorf("token should be gone, got err=%v", err)
	}
	if m.Epoch() == epochBefore {
		t.Error("epoch should advance when the session is cleared")
	}
}

func TestVerifySession_NetworkErrorKeepsCurrentBelief(t *testing.T) {
	identity := testIdentity()
	backend := &fakeBackend{
		loginResult: &api.AuthResult{Token: "tok-abc", Identity: identity},
	}
	creds := &fakeCreds{}
	m := newTestManager(backend, creds)
	m.SetVerifyWindow(0)

	if _, err := m.Login(context.Background(), identity.Email, "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	backend.mu.Lock()
	backend.meErr = errors.New("dial tcp: connection refused")
	backend.mu.Unlock()

	if status := m.VerifySession(context.Background()); status != StatusAuthenticated {
		t.Errorf("status = %s after network error, want authenticated (unknown, not denied)", status)
	}
	if _, err := creds.LoadToken(); err != nil {
		t.Errorf("token should survive a network error: %v", err)
	}
}

func TestVerifySession_ReusesRecentPositiveAnswer(t *testing.T) {
	identity := testIdentity()
	backend := &fakeBackend{
		loginResult: &api.AuthResult{Token: "tok-abc", Identity: identity},
		meIdentity:  &identity,
	}
	m := newTestManager(backend, &fakeCreds{})

	if _, err := m.Login(context.Background(), identity.Email, "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// Login just verified; within the window no round trip happens
	m.VerifySession(context.Background())
	m.VerifySession(context.Background())

	backend.mu.Lock()
	calls := backend.meCalls
	backend.mu.Unlock()
	if calls != 0 {
		t.Errorf("backend saw %d verify calls inside the reuse window, want 0", calls)
	}

	m.SetVerifyWindow(0)
	m.VerifySession(context.Background())

	backend.mu.Lock()
	calls = backend.meCalls
	backend.mu.Unlock()
	if calls != 1 {
		t.Errorf("backend saw %d verify calls after the window expired, want 1", calls)
	}
}

func TestLogout_ClearsEvenWhenBackendFails(t *testing.T) {
	identity := testIdentity()
	backend := &fakeBackend{
		loginResult: &api.AuthResult{Token: "tok-abc", Identity: identity},
		logoutErr:   errors.New("backend down"),
	}
	creds := &fakeCreds{}
	m := newTestManager(backend, creds)

	if _, err := m.Login(context.Background(), identity.Email, "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	epochBefore := m.Epoch()

	m.Logout(context.Background())

	if m.Status() != StatusUnauthenticated {
		t.Errorf("status = %s, want unauthenticated", m.Status())
	}
	if _, err := creds.LoadToken(); !errors.Is(err, credentials.ErrNotAuthenticated) {
		t.Errorf("token should be gone, got err=%v", err)
	}
	if m.Epoch() == epochBefore {
		t.Error("epoch should advance on logout")
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if backend.logoutCalls != 1 {
		t.Errorf("backend logout called %d times, want 1", backend.logoutCalls)
	}
}
