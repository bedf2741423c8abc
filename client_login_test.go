package materna

import (
	"context"
	"errors"
	"testing"

	"github.com/materna-health/materna-go/store"
)

func TestLoginEstablishesSession(t *testing.T) {
	gw := &mockGateway{}
	st := store.NewMemoryStore()
	client := newTestClient(t, gw, st)
	ctx := context.Background()

	gw.loginFn = func(_ context.Context, creds Credentials) (*AuthPayload, error) {
		if creds.Email != "a@b.com" {
			t.Fatalf("unexpected email: %q", creds.Email)
		}
		return patientPayload(), nil
	}

	result, err := client.Login(ctx, Credentials{Email: "a@b.com", Password: "longenough"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !result.Success || result.Token != "t1" || result.User == nil || result.User.ID != "u1" {
		t.Fatalf("unexpected result: %+v", result)
	}

	if !client.IsAuthenticated() {
		t.Fatal("expected authenticated state")
	}
	if client.Token() != "t1" {
		t.Fatalf("expected token t1, got %q", client.Token())
	}
	if !client.HasCompletedOnboarding(ctx) {
		t.Fatal("expected onboarding flag set after login")
	}
	assertPairInvariant(t, client)

	if _, err := st.Get(ctx, KeyAuthToken); err != nil {
		t.Fatalf("expected persisted token: %v", err)
	}
	if _, err := st.Get(ctx, KeyUserData); err != nil {
		t.Fatalf("expected persisted user: %v", err)
	}
}

func TestLoginRejectsNonPatient(t *testing.T) {
	gw := &mockGateway{}
	st := store.NewMemoryStore()
	client := newTestClient(t, gw, st)
	ctx := context.Background()

	gw.loginFn = func(context.Context, Credentials) (*AuthPayload, error) {
		return &AuthPayload{
			Token: "t-doctor",
			User:  UserRecord{ID: "d1", Email: "doc@b.com", Role: RoleDoctor},
		}, nil
	}

	fired := false
	client.OnAuthenticationFailure(func() { fired = true })

	_, err := client.Login(ctx, Credentials{Email: "doc@b.com", Password: "longenough"})
	if !errors.Is(err, ErrRoleNotPermitted) {
		t.Fatalf("expected ErrRoleNotPermitted, got %v", err)
	}

	if client.IsAuthenticated() {
		t.Fatal("expected unauthenticated state after role rejection")
	}
	if client.Token() != "" {
		t.Fatal("issued token must not be visible to the caller")
	}
	if _, err := st.Get(ctx, KeyAuthToken); !errors.Is(err, store.ErrKeyNotFound) {
		t.Fatalf("expected auth_token absent, got err=%v", err)
	}
	if fired {
		t.Fatal("role rejection must not trigger the failure broadcast")
	}
	assertPairInvariant(t, client)

	if got := client.MetricsSnapshot().Counters[MetricLoginRoleRejected]; got != 1 {
		t.Fatalf("expected role rejection counter 1, got %d", got)
	}
}

func TestLoginFailureDoesNotBroadcast(t *testing.T) {
	gw := &mockGateway{}
	client := newTestClient(t, gw, nil)

	wantErr := errors.New("invalid credentials")
	gw.loginFn = func(context.Context, Credentials) (*AuthPayload, error) {
		return nil, wantErr
	}

	fired := false
	client.OnAuthenticationFailure(func() { fired = true })

	_, err := client.Login(context.Background(), Credentials{Email: "a@b.com", Password: "wrongwrong"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected backend error propagated untouched, got %v", err)
	}
	if fired {
		t.Fatal("login failure must not invoke failure callbacks")
	}
	if client.IsAuthenticated() {
		t.Fatal("expected unauthenticated state")
	}
}

func TestLoginValidatesInputBeforeNetwork(t *testing.T) {
	gw := &mockGateway{}
	client := newTestClient(t, gw, nil)

	_, err := client.Login(context.Background(), Credentials{Email: "not-an-email", Password: "longenough"})
	if !errors.Is(err, ErrCredentialValidation) {
		t.Fatalf("expected ErrCredentialValidation, got %v", err)
	}
	if gw.loginCalls != 0 {
		t.Fatalf("expected no network call, got %d", gw.loginCalls)
	}
}

func TestLoginWipesResidueFromPreviousSession(t *testing.T) {
	gw := &mockGateway{}
	st := store.NewMemoryStore()
	client := newTestClient(t, gw, st)
	ctx := context.Background()

	seed := map[string]string{
		KeyAuthToken:             "old-token",
		KeyUserData:              `{"id":"old"}`,
		"cached_medical_records": "stale",
		"user_preferences":       "stale",
		"some_forgotten_key":     "stale",
	}
	if err := st.MultiSet(ctx, seed); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	authenticate(t, client, gw)

	for _, key := range []string{"cached_medical_records", "user_preferences", "some_forgotten_key"} {
		if _, err := st.Get(ctx, key); !errors.Is(err, store.ErrKeyNotFound) {
			t.Fatalf("expected %s wiped, got err=%v", key, err)
		}
	}
	if token, err := st.Get(ctx, KeyAuthToken); err != nil || token != "t1" {
		t.Fatalf("expected fresh token persisted, got %q err=%v", token, err)
	}
}

func TestLoginEmptyPayloadRejected(t *testing.T) {
	gw := &mockGateway{}
	client := newTestClient(t, gw, nil)

	gw.loginFn = func(context.Context, Credentials) (*AuthPayload, error) {
		return &AuthPayload{Token: "", User: UserRecord{ID: "u1", Role: RolePatient}}, nil
	}

	_, err := client.Login(context.Background(), Credentials{Email: "a@b.com", Password: "longenough"})
	if !errors.Is(err, ErrEmptyAuthPayload) {
		t.Fatalf("expected ErrEmptyAuthPayload, got %v", err)
	}
	if client.IsAuthenticated() {
		t.Fatal("expected unauthenticated state")
	}
}
