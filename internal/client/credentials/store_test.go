package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zalando/go-keyring"
)

func newMockStore(t *testing.T) *Store {
	t.Helper()
	keyring.MockInit()
	return NewStoreAt("https://api.acme.test", t.TempDir())
}

func TestTokenRoundTrip(t *testing.T) {
	store := newMockStore(t)

	if _, err := store.LoadToken(); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("fresh store LoadToken err = %v, want ErrNotAuthenticated", err)
	}

	if err := store.SaveToken("tok-abc"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	token, err := store.LoadToken()
	if err != nil || token != "tok-abc" {
		t.Fatalf("LoadToken = %q, %v", token, err)
	}

	if err := store.DeleteToken(); err != nil {
		t.Fatalf("DeleteToken: %v", err)
	}
	if _, err := store.LoadToken(); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("LoadToken after delete err = %v, want ErrNotAuthenticated", err)
	}

	// Deleting again is not an error
	if err := store.DeleteToken(); err != nil {
		t.Errorf("second DeleteToken: %v", err)
	}
}

func TestTokensKeyedByServer(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()
	a := NewStoreAt("https://api.acme.test", dir)
	b := NewStoreAt("https://api.globex.test", dir)

	if err := a.SaveToken("tok-acme"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	if _, err := b.LoadToken(); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("other server's store found a token: %v", err)
	}
}

func TestHintRoundTrip(t *testing.T) {
	store := newMockStore(t)

	if hint := store.ReadHint(); hint.Authenticated {
		t.Fatal("fresh store should read a zero hint")
	}

	want := Hint{
		Authenticated: true,
		UserID:        "usr_01",
		Email:         "owner@acme.test",
		Name:          "Acme Owner",
		CompanyID:     "cmp_01",
	}
	if err := store.WriteHint(want); err != nil {
		t.Fatalf("WriteHint: %v", err)
	}
	if got := store.ReadHint(); got != want {
		t.Errorf("ReadHint = %+v, want %+v", got, want)
	}
}

func TestHintFilePermissions(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()
	store := NewStoreAt("https://api.acme.test", dir)

	if err := store.WriteHint(Hint{Authenticated: true}); err != nil {
		t.Fatalf("WriteHint: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one hint file, got %d (%v)", len(entries), err)
	}
	info, err := os.Stat(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("hint file permissions = %o, want 0600", perm)
	}
}

func TestCorruptHintReadsAsZero(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()
	store := NewStoreAt("https://api.acme.test", dir)

	if err := store.WriteHint(Hint{Authenticated: true}); err != nil {
		t.Fatalf("WriteHint: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if err := os.WriteFile(filepath.Join(dir, entries[0].Name()), []byte("{not json"), 0600); err != nil {
		t.Fatalf("corrupt write: %v", err)
	}

	if hint := store.ReadHint(); hint.Authenticated {
		t.Error("corrupt hint file should read as the zero hint")
	}
}

func TestClear(t *testing.T) {
	store := newMockStore(t)

	if err := store.SaveToken("tok-abc"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	if err := store.WriteHint(Hint{Authenticated: true, Email: "owner@acme.test"}); err != nil {
		t.Fatalf("WriteHint: %v", err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := store.LoadToken(); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("token survived Clear: %v", err)
	}
	if hint := store.ReadHint(); hint.Authenticated {
		t.Errorf("hint survived Clear: %+v", hint)
	}

	// Clearing an already-empty store is not an error
	if err := store.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}
