package materna

// FailureSubscription is the handle returned by
// [Client.OnAuthenticationFailure]. Removal is by handle identity, so two
// registrations of the same function are independent.
type FailureSubscription struct {
	id uint64
	fn func()
}

// OnAuthenticationFailure registers a zero-argument callback invoked when
// the client determines the current session is no longer valid. Callbacks
// run in registration order; a callback that panics does not stop the rest.
//
// The registry is cleared as part of every complete wipe, so owners must
// re-register after a forced logout.
func (c *Client) OnAuthenticationFailure(fn func()) *FailureSubscription {
	if c == nil || fn == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.subSeq++
	sub := &FailureSubscription{id: c.subSeq, fn: fn}
	c.callbacks = append(c.callbacks, sub)
	return sub
}

// RemoveAuthenticationFailureCallback unregisters sub. Unknown or nil
// handles are ignored.
func (c *Client) RemoveAuthenticationFailureCallback(sub *FailureSubscription) {
	if c == nil || sub == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i, registered := range c.callbacks {
		if registered == sub {
			c.callbacks = append(c.callbacks[:i], c.callbacks[i+1:]...)
			return
		}
	}
}

// snapshotCallbacks copies the registry so a callback that unsubscribes
// itself mid-broadcast cannot corrupt iteration.
func (c *Client) snapshotCallbacks() []*FailureSubscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.callbacks) == 0 {
		return nil
	}
	return append([]*FailureSubscription(nil), c.callbacks...)
}

// broadcast fires each subscription in order, each isolated so one panic
// never prevents the remaining callbacks from running. Fire-and-forget: the
// broadcaster does not wait for any asynchronous work a callback starts.
func (c *Client) broadcast(subs []*FailureSubscription) {
	for _, sub := range subs {
		c.metricInc(MetricFailureBroadcast)
		c.invokeIsolated(sub)
	}
}

func (c *Client) invokeIsolated(sub *FailureSubscription) {
	defer func() {
		if r := recover(); r != nil {
			c.metricInc(MetricCallbackPanic)
			c.logger.Error("authentication failure callback panicked")
		}
	}()
	sub.fn()
}
