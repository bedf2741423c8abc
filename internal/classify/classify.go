// Package classify decides whether a transport error means the current
// credential is dead. Structured gateway errors answer directly; plain
// errors from third-party Gateway implementations fall back to matching the
// message against the auth-failure vocabulary older clients relied on.
package classify

import (
	"errors"
	"strings"
)

// AuthKinded is implemented by structured transport errors. AuthFailure
// reports a 401/403-class response.
type AuthKinded interface {
	AuthFailure() bool
}

// Legacy substring vocabulary, matched case-insensitively.
var authFailureMarkers = []string{
	"401",
	"403",
	"token",
	"unauthorized",
	"authentication",
}

// IsAuthFailure reports whether err indicates the current session is no
// longer valid. Structured errors are consulted first; anything else is
// matched by message.
func IsAuthFailure(err error) bool {
	if err == nil {
		return false
	}

	var kinded AuthKinded
	if errors.As(err, &kinded) {
		return kinded.AuthFailure()
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range authFailureMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
