package materna

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/materna-health/materna-go/store"
)

// legacyWipeKeys are cache keys written by prior mobile releases. They are
// removed on every complete wipe even though the current client never
// writes them.
var legacyWipeKeys = []string{
	"cached_user",
	"cached_medical_records",
	"registered_users",
	"user_preferences",
	"app_settings",
}

const (
	auditEventWipe = "complete_wipe"
)

func (c *Client) wipeAllowed(key string) bool {
	if key == store.KeyInstallationID {
		return true
	}
	for _, allowed := range c.config.Wipe.AllowKeys {
		if key == allowed {
			return true
		}
	}
	for _, prefix := range c.config.Wipe.AllowPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// fixedWipeKeys is the removal list that runs even when enumeration fails:
// the three session keys, the legacy cache keys, and anything configured.
func (c *Client) fixedWipeKeys() []string {
	keys := []string{KeyAuthToken, KeyUserData, KeyOnboardingCompleted}
	keys = append(keys, legacyWipeKeys...)
	keys = append(keys, c.config.Wipe.ExtraLegacyKeys...)
	return keys
}

// completeWipe removes every persisted key outside the allow-list and resets
// in-memory session state. Each tier is independently fault-tolerant: a
// failure is logged and the remaining tiers still run. In-memory state is
// reset no matter what the store does, so "locally logged out" is always
// achievable.
//
// The returned error aggregates persistence failures for the caller's log;
// it never means the wipe was skipped.
func (c *Client) completeWipe(ctx context.Context) error {
	start := time.Now()
	c.metricInc(MetricWipe)

	var errs []error

	// Tier 1: enumerate all keys and remove everything outside the
	// allow-list. Defends against stale keys from prior schema versions.
	keys, err := c.store.Keys(ctx)
	if err != nil {
		c.metricInc(MetricWipeEnumerationFallback)
		c.logger.Warn("wipe: key enumeration failed, relying on fixed key removal", zap.Error(err))
		errs = append(errs, err)
	} else {
		removal := make([]string, 0, len(keys))
		for _, key := range keys {
			if !c.wipeAllowed(key) {
				removal = append(removal, key)
			}
		}
		if len(removal) > 0 {
			if err := c.store.MultiRemove(ctx, removal); err != nil {
				c.logger.Warn("wipe: enumerated removal failed", zap.Error(err))
				errs = append(errs, err)
			}
		}
	}

	// Tier 2: redundant fixed-key removal. Covers an enumeration that
	// silently missed keys as well as an enumeration that failed outright.
	if err := c.store.MultiRemove(ctx, c.fixedWipeKeys()); err != nil {
		c.logger.Warn("wipe: fixed key removal failed", zap.Error(err))
		errs = append(errs, err)
	}

	// Tier 3: in-memory reset and registry clear. Unconditional.
	c.mu.Lock()
	c.token = ""
	c.user = nil
	c.callbacks = nil
	c.mu.Unlock()

	// Tier 4: verify. If either session key survived, retry it narrowly.
	residual := false
	for _, key := range []string{KeyAuthToken, KeyUserData} {
		value, err := c.store.Get(ctx, key)
		if err != nil || value == "" {
			continue
		}
		residual = true
		c.logger.Warn("wipe: residual session key survived removal, retrying", zap.String("key", key))
		if err := c.store.Remove(ctx, key); err != nil {
			c.logger.Warn("wipe: residual key retry failed", zap.String("key", key), zap.Error(err))
			errs = append(errs, err)
		}
	}
	if residual {
		c.metricInc(MetricWipeVerifyRetry)
	}

	if c.metrics.LatencyEnabled() {
		c.metrics.Observe(MetricWipeLatency, time.Since(start))
	}

	wipeErr := errors.Join(errs...)
	c.emitAudit(ctx, auditEventWipe, wipeErr == nil, "", wipeErr, nil)
	return wipeErr
}
