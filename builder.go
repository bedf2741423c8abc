package materna

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/materna-health/materna-go/store"
)

// Builder assembles a [Client]. A Builder is single-use; Build fails on the
// second call.
type Builder struct {
	config    Config
	store     store.CredentialStore
	gateway   Gateway
	logger    *zap.Logger
	auditSink AuditSink

	built bool
}

// New creates a Builder with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the credential store. Required.
func (b *Builder) WithStore(s store.CredentialStore) *Builder {
	b.store = s
	return b
}

// WithGateway sets the backend transport. Required. When the gateway also
// implements the binding hooks (gateway.Client does), Build registers the
// client as its token source and auth-failure handler.
func (b *Builder) WithGateway(g Gateway) *Builder {
	b.gateway = g
	return b
}

// WithLogger sets the logger. Defaults to a no-op logger.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the audit sink and enables auditing.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

// WithMetricsEnabled toggles the in-process metrics set.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// sessionBinder is implemented by transports that accept a back-reference to
// the session client, so a 401 anywhere triggers global cleanup without
// per-call-site wiring.
type sessionBinder interface {
	BindSession(source TokenSource)
	SetAuthFailureHandler(fn func())
}

// Build validates the wiring and returns the Client.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.store == nil {
		return nil, ErrNilStore
	}
	if b.gateway == nil {
		return nil, ErrNilGateway
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		config:   cfg,
		store:    b.store,
		gateway:  b.gateway,
		logger:   logger,
		metrics:  NewMetrics(cfg.Metrics),
		audit:    newAuditDispatcher(cfg.Audit, b.auditSink),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	if binder, ok := b.gateway.(sessionBinder); ok {
		binder.BindSession(c)
		binder.SetAuthFailureHandler(func() {
			c.handleAuthenticationFailure(context.Background())
		})
	}

	b.built = true
	return c, nil
}
