package materna

import "context"

// HasCompletedOnboarding reports whether the first-run onboarding flow has
// finished on this install. Independent of authentication state, but the
// complete wipe removes the flag, so a wiped install sees onboarding again.
func (c *Client) HasCompletedOnboarding(ctx context.Context) bool {
	if c == nil || c.store == nil {
		return false
	}
	value, err := c.store.Get(ctx, KeyOnboardingCompleted)
	return err == nil && value == "true"
}

// SetOnboardingCompleted marks first-run onboarding as finished. Login and
// register set it implicitly.
func (c *Client) SetOnboardingCompleted(ctx context.Context) error {
	if c == nil || c.store == nil {
		return ErrClientNotReady
	}
	return c.store.Set(ctx, KeyOnboardingCompleted, "true")
}
