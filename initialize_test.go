package materna

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/materna-health/materna-go/store"
)

func seedSession(t *testing.T, st store.CredentialStore, token, userJSON string) {
	t.Helper()

	ctx := context.Background()
	if token != "" {
		if err := st.Set(ctx, KeyAuthToken, token); err != nil {
			t.Fatalf("seed token: %v", err)
		}
	}
	if userJSON != "" {
		if err := st.Set(ctx, KeyUserData, userJSON); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestInitializeRestoresPersistedSession(t *testing.T) {
	gw := &mockGateway{}
	st := store.NewMemoryStore()
	seedSession(t, st, "persisted-token", `{"id":"u1","firstName":"Amina","role":"patient"}`)
	client := newTestClient(t, gw, st)

	if err := client.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	if !client.IsAuthenticated() {
		t.Fatal("expected restored session")
	}
	if client.Token() != "persisted-token" {
		t.Fatalf("unexpected token %q", client.Token())
	}
	if user := client.User(); user == nil || user.ID != "u1" {
		t.Fatalf("unexpected user %+v", user)
	}
	if gw.loginCalls+gw.currentCalls != 0 {
		t.Fatal("restore must not hit the network")
	}
}

func TestInitializeWithTokenButNoUserStaysUnauthenticated(t *testing.T) {
	gw := &mockGateway{}
	st := store.NewMemoryStore()
	seedSession(t, st, "orphan-token", "")
	client := newTestClient(t, gw, st)
	ctx := context.Background()

	if err := client.Initialize(ctx); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	if client.IsAuthenticated() {
		t.Fatal("expected unauthenticated with half-present pair")
	}
	assertPairInvariant(t, client)
	// The orphan key is left in place; restore does not clean up.
	if _, err := st.Get(ctx, KeyAuthToken); err != nil {
		t.Fatalf("expected orphan token left in store, got %v", err)
	}
}

func TestInitializeWithUserButNoTokenStaysUnauthenticated(t *testing.T) {
	gw := &mockGateway{}
	st := store.NewMemoryStore()
	seedSession(t, st, "", `{"id":"u1"}`)
	client := newTestClient(t, gw, st)

	if err := client.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if client.IsAuthenticated() {
		t.Fatal("expected unauthenticated with half-present pair")
	}
	assertPairInvariant(t, client)
}

func TestInitializeCorruptUserRecordStaysUnauthenticated(t *testing.T) {
	gw := &mockGateway{}
	st := store.NewMemoryStore()
	seedSession(t, st, "tok", `{"id": truncated`)
	client := newTestClient(t, gw, st)

	if err := client.Initialize(context.Background()); err != nil {
		t.Fatalf("corrupt record must not fail initialize, got %v", err)
	}
	if client.IsAuthenticated() {
		t.Fatal("expected unauthenticated with corrupt user record")
	}
}

func TestInitializeStoreErrorPropagates(t *testing.T) {
	gw := &mockGateway{}
	down := errors.New("store unreadable")
	st := &faultStore{
		CredentialStore: store.NewMemoryStore(),
		getErr:          map[string]error{KeyAuthToken: down},
	}
	client := newTestClient(t, gw, st)

	if err := client.Initialize(context.Background()); !errors.Is(err, down) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if client.IsAuthenticated() {
		t.Fatal("expected unauthenticated after failed restore")
	}
}

func TestInitializeRejectsExpiredTokenWhenConfigured(t *testing.T) {
	gw := &mockGateway{}
	st := store.NewMemoryStore()
	seedSession(t, st, signedToken(t, time.Now().Add(-time.Hour)), `{"id":"u1"}`)

	cfg := defaultConfig()
	cfg.Session.RejectExpiredOnRestore = true
	client, err := New().
		WithConfig(cfg).
		WithStore(st).
		WithGateway(gw).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	t.Cleanup(client.Close)

	if err := client.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if client.IsAuthenticated() {
		t.Fatal("expected expired token rejected on restore")
	}
	if got := client.MetricsSnapshot().Counters[MetricRestoreRejectedExpired]; got != 1 {
		t.Fatalf("expected rejected-expired counter 1, got %d", got)
	}
}

func TestInitializeAcceptsExpiredTokenByDefault(t *testing.T) {
	gw := &mockGateway{}
	st := store.NewMemoryStore()
	seedSession(t, st, signedToken(t, time.Now().Add(-time.Hour)), `{"id":"u1"}`)
	client := newTestClient(t, gw, st)

	if err := client.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if !client.IsAuthenticated() {
		t.Fatal("restore is optimistic by default; server-side validation settles it")
	}
}
