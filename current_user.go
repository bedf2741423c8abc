package materna

import (
	"context"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/materna-health/materna-go/internal/classify"
)

const (
	auditEventUserRefreshed  = "user_refreshed"
	auditEventRefreshSuccess = "token_refresh_success"
	auditEventRefreshFailure = "token_refresh_failure"
)

// GetCurrentUser fetches the authoritative profile from the backend and
// refreshes both the in-memory and the persisted copy. An auth-shaped
// failure (401/403-class, or a message matching the legacy auth vocabulary)
// triggers the full wipe-and-broadcast reaction; any other failure — network
// unreachable, 5xx — propagates untouched and leaves the session alone.
func (c *Client) GetCurrentUser(ctx context.Context) (*UserRecord, error) {
	if !c.ready() {
		return nil, ErrClientNotReady
	}
	if !c.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	user, err := c.gateway.CurrentUser(ctx)
	if err != nil {
		if classify.IsAuthFailure(err) {
			c.handleAuthenticationFailure(ctx)
		}
		return nil, err
	}

	c.adoptUser(ctx, user)
	c.emitAudit(ctx, auditEventUserRefreshed, true, user.ID, nil, nil)

	out := *user
	return &out, nil
}

// ValidateToken confirms the persisted credential against the backend.
//
// Deliberately stricter than [Client.GetCurrentUser]: ANY failure here,
// including a pure network failure, is collapsed to "token invalid" and
// force-logs-out. A genuinely offline user can therefore be logged out by
// this path even though their token is still valid — that asymmetry is
// inherited behavior, kept on purpose rather than silently fixed.
func (c *Client) ValidateToken(ctx context.Context) bool {
	if !c.ready() || !c.IsAuthenticated() {
		return false
	}

	user, err := c.gateway.CurrentUser(ctx)
	if err != nil {
		c.logger.Info("token validation failed, forcing logout", zap.Error(err))
		c.handleAuthenticationFailure(ctx)
		c.metricInc(MetricValidateFailure)
		return false
	}

	c.adoptUser(ctx, user)
	c.metricInc(MetricValidateSuccess)
	return true
}

// IsLoggedIn composes the pure in-memory check with a round-trip token
// validation. It inherits [Client.ValidateToken]'s strictness.
func (c *Client) IsLoggedIn(ctx context.Context) bool {
	return c.IsAuthenticated() && c.ValidateToken(ctx)
}

// RefreshToken exchanges the current credential for a fresh one. On any
// failure the session is treated as dead: wipe, broadcast, return false.
func (c *Client) RefreshToken(ctx context.Context) bool {
	if !c.ready() || !c.IsAuthenticated() {
		return false
	}

	payload, err := c.gateway.Refresh(ctx)
	if err != nil || payload == nil || payload.Token == "" || payload.User.ID == "" {
		c.metricInc(MetricRefreshFailure)
		c.emitAudit(ctx, auditEventRefreshFailure, false, "", err, nil)
		c.handleAuthenticationFailure(ctx)
		return false
	}

	user := payload.User
	c.setSession(payload.Token, &user)
	c.persistSession(ctx, payload.Token, &user)

	c.metricInc(MetricRefreshSuccess)
	c.emitAudit(ctx, auditEventRefreshSuccess, true, user.ID, nil, nil)
	return true
}

// adoptUser replaces the in-memory profile and rewrites the persisted copy.
// Persistence failures are logged; the in-memory copy still updates.
func (c *Client) adoptUser(ctx context.Context, user *UserRecord) {
	u := *user

	c.mu.Lock()
	c.user = &u
	c.mu.Unlock()

	userJSON, err := json.Marshal(u)
	if err != nil {
		c.logger.Warn("serialize refreshed user record failed", zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, KeyUserData, string(userJSON)); err != nil {
		c.logger.Warn("persist refreshed user record failed", zap.Error(err))
	}
}

// persistSession rewrites both session keys in one multi-key write.
// Persistence failures are logged; memory stays authoritative.
func (c *Client) persistSession(ctx context.Context, token string, user *UserRecord) {
	userJSON, err := json.Marshal(user)
	if err != nil {
		c.logger.Warn("serialize user record failed", zap.Error(err))
		return
	}
	if err := c.store.MultiSet(ctx, map[string]string{
		KeyAuthToken: token,
		KeyUserData:  string(userJSON),
	}); err != nil {
		c.logger.Warn("persist refreshed session failed", zap.Error(err))
	}
}
