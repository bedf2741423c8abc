package materna

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/materna-health/materna-go/store"
)

// Client is the session lifecycle manager. One instance owns the current
// credential for the whole process; construct it through [Builder.Build] and
// hand it to whatever owns the application's top-level lifecycle.
//
// The in-memory pair {token, user} is the single source of truth for
// authentication state. Invariant: both are set or both are empty, never one
// without the other.
type Client struct {
	config   Config
	store    store.CredentialStore
	gateway  Gateway
	logger   *zap.Logger
	metrics  *Metrics
	audit    *auditDispatcher
	validate *validator.Validate

	mu        sync.Mutex
	token     string
	user      *UserRecord
	callbacks []*FailureSubscription
	subSeq    uint64
}

// Close flushes the audit dispatcher. The Client is unusable afterwards only
// for auditing; session operations keep working.
func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.audit != nil {
		c.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded under
// back-pressure.
func (c *Client) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

// MetricsSnapshot copies the current counter and histogram values.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

// IsAuthenticated reports whether an in-memory session exists. Pure memory
// check, no I/O, no network.
func (c *Client) IsAuthenticated() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token != "" && c.user != nil
}

// Token returns the current bearer token, or "" when unauthenticated.
// Implements [TokenSource] for the gateway.
func (c *Client) Token() string {
	if c == nil {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// User returns a copy of the last known user profile, or nil when
// unauthenticated.
func (c *Client) User() *UserRecord {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

func (c *Client) ready() bool {
	return c != nil && c.store != nil && c.gateway != nil
}

func (c *Client) metricInc(id MetricID) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Inc(id)
}

// setSession installs the in-memory pair under lock. Empty token with
// non-nil user (or the reverse) is rejected by construction: callers always
// pass both or neither.
func (c *Client) setSession(token string, user *UserRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.user = user
}

func (c *Client) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if c == nil || c.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		RequestID: RequestIDFromContext(ctx),
		DeviceID:  DeviceIDFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		event.Error = err.Error()
	}

	c.audit.Emit(ctx, event)
}
