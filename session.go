package materna

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/materna-health/materna-go/store"
)

const (
	auditEventLoginSuccess      = "login_success"
	auditEventLoginFailure      = "login_failure"
	auditEventLoginRoleRejected = "login_role_rejected"
	auditEventRegisterSuccess   = "register_success"
	auditEventRegisterFailure   = "register_failure"
	auditEventSessionRestored   = "session_restored"
	auditEventLogout            = "logout"
	auditEventForcedLogout      = "forced_logout"
	auditEventAuthFailure       = "auth_failure"
)

// Initialize restores a persisted session into memory. Both keys must be
// present; a lone token or lone user record is left in place untouched and
// the client stays unauthenticated. No network round-trip happens here —
// restore is optimistic and the next authenticated call settles validity.
func (c *Client) Initialize(ctx context.Context) error {
	if !c.ready() {
		return ErrClientNotReady
	}

	token, err := c.store.Get(ctx, KeyAuthToken)
	if err != nil && !errors.Is(err, store.ErrKeyNotFound) {
		return fmt.Errorf("read persisted token: %w", err)
	}

	userJSON, err := c.store.Get(ctx, KeyUserData)
	if err != nil && !errors.Is(err, store.ErrKeyNotFound) {
		return fmt.Errorf("read persisted user: %w", err)
	}

	if token == "" || userJSON == "" {
		return nil
	}

	var user UserRecord
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		c.logger.Warn("persisted user record is corrupt, staying unauthenticated", zap.Error(err))
		return nil
	}

	if c.config.Session.RejectExpiredOnRestore && tokenExpired(token) {
		c.metricInc(MetricRestoreRejectedExpired)
		c.logger.Info("persisted token is past its exp claim, staying unauthenticated")
		return nil
	}

	c.setSession(token, &user)
	c.metricInc(MetricSessionRestored)
	c.emitAudit(ctx, auditEventSessionRestored, true, user.ID, nil, nil)
	return nil
}

// Login authenticates against the backend and establishes a session. The
// role gate applies: a non-patient account that authenticates successfully
// is wiped immediately and rejected with [ErrRoleNotPermitted] — the token
// the backend issued never becomes visible to the caller.
//
// Backend rejections (bad credentials, validation) propagate untouched and
// never trigger the failure-callback broadcast; they are user-input errors,
// not a dying session.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	if !c.ready() {
		return nil, ErrClientNotReady
	}

	if c.config.Session.ValidateInput {
		if err := c.validate.Struct(creds); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCredentialValidation, err)
		}
	}

	payload, err := c.gateway.Login(ctx, creds)
	if err != nil {
		c.metricInc(MetricLoginFailure)
		c.emitAudit(ctx, auditEventLoginFailure, false, "", err, nil)
		return nil, err
	}
	if payload == nil || payload.Token == "" || payload.User.ID == "" {
		c.metricInc(MetricLoginFailure)
		c.emitAudit(ctx, auditEventLoginFailure, false, "", ErrEmptyAuthPayload, nil)
		return nil, ErrEmptyAuthPayload
	}

	if payload.User.Role != RolePatient {
		if err := c.completeWipe(ctx); err != nil {
			c.logger.Warn("wipe after role rejection reported persistence errors", zap.Error(err))
		}
		c.metricInc(MetricLoginRoleRejected)
		c.emitAudit(ctx, auditEventLoginRoleRejected, false, payload.User.ID, ErrRoleNotPermitted, func() map[string]string {
			return map[string]string{"role": string(payload.User.Role)}
		})
		return nil, ErrRoleNotPermitted
	}

	if err := c.refreshForNewUser(ctx, payload); err != nil {
		c.logger.Warn("persisting new session failed; session is memory-only until next login", zap.Error(err))
	}

	c.metricInc(MetricLoginSuccess)
	c.emitAudit(ctx, auditEventLoginSuccess, true, payload.User.ID, nil, nil)

	user := payload.User
	return &LoginResult{
		Success: true,
		Token:   payload.Token,
		User:    &user,
		Message: "login successful",
	}, nil
}

// Register creates a patient account and establishes a session. The role on
// the outgoing request is always forced to patient regardless of input, and
// the same role gate as [Client.Login] applies to the response.
func (c *Client) Register(ctx context.Context, input RegisterInput) (*LoginResult, error) {
	if !c.ready() {
		return nil, ErrClientNotReady
	}

	input.Role = RolePatient

	if c.config.Session.ValidateInput {
		if err := c.validate.Struct(input); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCredentialValidation, err)
		}
	}

	payload, err := c.gateway.Register(ctx, input)
	if err != nil {
		c.metricInc(MetricRegisterFailure)
		c.emitAudit(ctx, auditEventRegisterFailure, false, "", err, nil)
		return nil, err
	}
	if payload == nil || payload.Token == "" || payload.User.ID == "" {
		c.metricInc(MetricRegisterFailure)
		c.emitAudit(ctx, auditEventRegisterFailure, false, "", ErrEmptyAuthPayload, nil)
		return nil, ErrEmptyAuthPayload
	}

	if payload.User.Role != RolePatient {
		if err := c.completeWipe(ctx); err != nil {
			c.logger.Warn("wipe after role rejection reported persistence errors", zap.Error(err))
		}
		c.metricInc(MetricLoginRoleRejected)
		c.emitAudit(ctx, auditEventLoginRoleRejected, false, payload.User.ID, ErrRoleNotPermitted, func() map[string]string {
			return map[string]string{"role": string(payload.User.Role)}
		})
		return nil, ErrRoleNotPermitted
	}

	if err := c.refreshForNewUser(ctx, payload); err != nil {
		c.logger.Warn("persisting new session failed; session is memory-only until next login", zap.Error(err))
	}

	c.metricInc(MetricRegisterSuccess)
	c.emitAudit(ctx, auditEventRegisterSuccess, true, payload.User.ID, nil, nil)

	user := payload.User
	return &LoginResult{
		Success: true,
		Token:   payload.Token,
		User:    &user,
		Message: "registration successful",
	}, nil
}

// refreshForNewUser replaces whatever session existed with the freshly
// issued one. The wipe must fully complete before the new credential is
// written, so a crash mid-sequence can never leave the new token next to
// stale cache keys from the previous session.
func (c *Client) refreshForNewUser(ctx context.Context, payload *AuthPayload) error {
	if err := c.completeWipe(ctx); err != nil {
		c.logger.Warn("pre-login wipe reported persistence errors", zap.Error(err))
	}

	user := payload.User
	c.setSession(payload.Token, &user)

	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("serialize user record: %w", err)
	}

	if err := c.store.MultiSet(ctx, map[string]string{
		KeyAuthToken: payload.Token,
		KeyUserData:  string(userJSON),
	}); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	if err := c.store.Set(ctx, KeyOnboardingCompleted, "true"); err != nil {
		c.logger.Warn("persisting onboarding flag failed", zap.Error(err))
	}
	return nil
}

// Logout ends the session: a best-effort server-side logout call, always
// followed by a complete wipe. A failing server call is logged and swallowed
// — logout is a local-state guarantee, not a round-trip guarantee. Safe to
// call repeatedly; logging out while logged out is a no-op wipe.
func (c *Client) Logout(ctx context.Context) error {
	if !c.ready() {
		return ErrClientNotReady
	}

	if c.IsAuthenticated() {
		if err := c.gateway.Logout(ctx); err != nil {
			c.logger.Warn("server-side logout failed, proceeding with local cleanup", zap.Error(err))
		}
	}

	if err := c.completeWipe(ctx); err != nil {
		c.logger.Warn("logout wipe reported persistence errors", zap.Error(err))
	}

	c.metricInc(MetricLogout)
	c.emitAudit(ctx, auditEventLogout, true, "", nil, nil)
	return nil
}

// ForceCompleteLogout is the emergency path: wipe everything, then
// unconditionally notify every registered failure callback so the UI is
// forced to a logged-out state even if the wipe reported errors. No server
// call is made.
func (c *Client) ForceCompleteLogout(ctx context.Context) {
	if c == nil || c.store == nil {
		return
	}

	snapshot := c.snapshotCallbacks()
	if err := c.completeWipe(ctx); err != nil {
		c.logger.Warn("forced logout wipe reported persistence errors", zap.Error(err))
	}
	c.broadcast(snapshot)

	c.metricInc(MetricForcedLogout)
	c.emitAudit(ctx, auditEventForcedLogout, true, "", nil, nil)
}

// handleAuthenticationFailure is the reaction to a dead credential: wipe,
// then broadcast to the callbacks that were registered when the failure was
// detected. The wipe clears the registry, so a second detection of the same
// failure broadcasts to nobody — callbacks fire exactly once per failure.
func (c *Client) handleAuthenticationFailure(ctx context.Context) {
	if c == nil || c.store == nil {
		return
	}

	snapshot := c.snapshotCallbacks()
	if err := c.completeWipe(ctx); err != nil {
		c.logger.Warn("auth failure wipe reported persistence errors", zap.Error(err))
	}
	c.broadcast(snapshot)

	c.metricInc(MetricAuthFailure)
	c.emitAudit(ctx, auditEventAuthFailure, false, "", nil, nil)
}
