//go:build integration
// +build integration

package test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	materna "github.com/materna-health/materna-go"
	"github.com/materna-health/materna-go/gateway"
	"github.com/materna-health/materna-go/store"
)

func newIntegrationStore(t *testing.T) (*store.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return store.NewRedisStore(rdb, "materna-test"), mr
}

// backend is a minimal in-memory auth server covering the endpoints the
// gateway client drives.
type backend struct {
	mu sync.Mutex

	users     map[string]backendUser // keyed by email
	tokens    map[string]string      // token -> email
	tokenSeq  int
	expireAll bool
}

type backendUser struct {
	record   materna.UserRecord
	password string
}

func newBackend() *backend {
	return &backend{
		users:  map[string]backendUser{},
		tokens: map[string]string{},
	}
}

func (b *backend) addUser(record materna.UserRecord, password string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[record.Email] = backendUser{record: record, password: password}
}

// expireAllTokens makes every issued token invalid, simulating server-side
// session expiry.
func (b *backend) expireAllTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expireAll = true
}

func (b *backend) issueToken(email string) string {
	b.tokenSeq++
	token := "srv-token-" + email + "-" + string(rune('a'+b.tokenSeq%26))
	b.tokens[token] = email
	return token
}

func (b *backend) authed(r *http.Request) (materna.UserRecord, bool) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) <= len(prefix) {
		return materna.UserRecord{}, false
	}
	token := header[len(prefix):]

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.expireAll {
		return materna.UserRecord{}, false
	}
	email, ok := b.tokens[token]
	if !ok {
		return materna.UserRecord{}, false
	}
	return b.users[email].record, true
}

func (b *backend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds materna.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			writeError(w, http.StatusBadRequest, "malformed body")
			return
		}

		b.mu.Lock()
		user, ok := b.users[creds.Email]
		b.mu.Unlock()
		if !ok || user.password != creds.Password {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		b.mu.Lock()
		token := b.issueToken(creds.Email)
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, materna.AuthPayload{Token: token, User: user.record})
	})

	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		var input materna.RegisterInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "malformed body")
			return
		}

		b.mu.Lock()
		if _, exists := b.users[input.Email]; exists {
			b.mu.Unlock()
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		record := materna.UserRecord{
			ID:        "reg-" + input.Email,
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Email:     input.Email,
			Phone:     input.Phone,
			Role:      input.Role,
			DueDate:   input.DueDate,
		}
		b.users[input.Email] = backendUser{record: record, password: input.Password}
		token := b.issueToken(input.Email)
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, materna.AuthPayload{Token: token, User: record})
	})

	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		record, ok := b.authed(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "token expired")
			return
		}
		writeJSON(w, http.StatusOK, record)
	})

	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		record, ok := b.authed(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "token expired")
			return
		}
		b.mu.Lock()
		token := b.issueToken(record.Email)
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, materna.AuthPayload{Token: token, User: record})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func newIntegrationClient(t *testing.T, st store.CredentialStore, b *backend) *materna.Client {
	t.Helper()

	server := httptest.NewServer(b.handler(t))
	t.Cleanup(server.Close)

	client, err := materna.New().
		WithStore(st).
		WithGateway(gateway.NewClient(server.URL)).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}
