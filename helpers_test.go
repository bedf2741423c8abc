package materna

import (
	"context"
	"errors"
	"testing"

	"github.com/materna-health/materna-go/store"
)

var errGatewayUnstubbed = errors.New("gateway method not stubbed")

type mockGateway struct {
	loginFn    func(ctx context.Context, creds Credentials) (*AuthPayload, error)
	registerFn func(ctx context.Context, input RegisterInput) (*AuthPayload, error)
	currentFn  func(ctx context.Context) (*UserRecord, error)
	logoutFn   func(ctx context.Context) error
	refreshFn  func(ctx context.Context) (*AuthPayload, error)

	loginCalls    int
	registerCalls int
	currentCalls  int
	logoutCalls   int
	refreshCalls  int
}

func (g *mockGateway) Login(ctx context.Context, creds Credentials) (*AuthPayload, error) {
	g.loginCalls++
	if g.loginFn == nil {
		return nil, errGatewayUnstubbed
	}
	return g.loginFn(ctx, creds)
}

func (g *mockGateway) Register(ctx context.Context, input RegisterInput) (*AuthPayload, error) {
	g.registerCalls++
	if g.registerFn == nil {
		return nil, errGatewayUnstubbed
	}
	return g.registerFn(ctx, input)
}

func (g *mockGateway) CurrentUser(ctx context.Context) (*UserRecord, error) {
	g.currentCalls++
	if g.currentFn == nil {
		return nil, errGatewayUnstubbed
	}
	return g.currentFn(ctx)
}

func (g *mockGateway) Logout(ctx context.Context) error {
	g.logoutCalls++
	if g.logoutFn == nil {
		return nil
	}
	return g.logoutFn(ctx)
}

func (g *mockGateway) Refresh(ctx context.Context) (*AuthPayload, error) {
	g.refreshCalls++
	if g.refreshFn == nil {
		return nil, errGatewayUnstubbed
	}
	return g.refreshFn(ctx)
}

// faultStore wraps a CredentialStore with injectable failures.
type faultStore struct {
	store.CredentialStore

	keysErr        error
	multiRemoveErr error
	removeErr      map[string]error
	getErr         map[string]error
	setErr         error
	multiSetErr    error
}

func (s *faultStore) Keys(ctx context.Context) ([]string, error) {
	if s.keysErr != nil {
		return nil, s.keysErr
	}
	return s.CredentialStore.Keys(ctx)
}

func (s *faultStore) MultiRemove(ctx context.Context, keys []string) error {
	if s.multiRemoveErr != nil {
		return s.multiRemoveErr
	}
	return s.CredentialStore.MultiRemove(ctx, keys)
}

func (s *faultStore) Remove(ctx context.Context, key string) error {
	if err, ok := s.removeErr[key]; ok {
		return err
	}
	return s.CredentialStore.Remove(ctx, key)
}

func (s *faultStore) Get(ctx context.Context, key string) (string, error) {
	if err, ok := s.getErr[key]; ok {
		return "", err
	}
	return s.CredentialStore.Get(ctx, key)
}

func (s *faultStore) Set(ctx context.Context, key, value string) error {
	if s.setErr != nil {
		return s.setErr
	}
	return s.CredentialStore.Set(ctx, key, value)
}

func (s *faultStore) MultiSet(ctx context.Context, pairs map[string]string) error {
	if s.multiSetErr != nil {
		return s.multiSetErr
	}
	return s.CredentialStore.MultiSet(ctx, pairs)
}

func newTestClient(t *testing.T, gw Gateway, st store.CredentialStore) *Client {
	t.Helper()

	if st == nil {
		st = store.NewMemoryStore()
	}

	client, err := New().
		WithStore(st).
		WithGateway(gw).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func patientPayload() *AuthPayload {
	return &AuthPayload{
		Token: "t1",
		User: UserRecord{
			ID:        "u1",
			FirstName: "Amina",
			LastName:  "Okafor",
			Email:     "a@b.com",
			Role:      RolePatient,
		},
	}
}

func authenticate(t *testing.T, c *Client, gw *mockGateway) {
	t.Helper()

	gw.loginFn = func(context.Context, Credentials) (*AuthPayload, error) {
		return patientPayload(), nil
	}
	if _, err := c.Login(context.Background(), Credentials{Email: "a@b.com", Password: "longenough"}); err != nil {
		t.Fatalf("login failed: %v", err)
	}
}

// assertPairInvariant checks that token and user are set together or cleared
// together.
func assertPairInvariant(t *testing.T, c *Client) {
	t.Helper()

	token := c.Token()
	user := c.User()
	if (token == "") != (user == nil) {
		t.Fatalf("credential pair invariant violated: token=%q user=%v", token, user)
	}
}
