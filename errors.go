package materna

import "errors"

var (
	// ErrClientNotReady is returned when a Client method is called before
	// Builder.Build wired the store and gateway.
	ErrClientNotReady = errors.New("client not ready")
	// ErrRoleNotPermitted is returned when the backend authenticates an
	// account whose role is not patient. The token the backend issued is
	// wiped before this error is returned.
	ErrRoleNotPermitted = errors.New("only patients can sign in to the mobile app")
	// ErrNotAuthenticated is returned by authenticated operations invoked
	// without a session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrCredentialValidation wraps client-side input validation failures.
	// These never reach the network.
	ErrCredentialValidation = errors.New("invalid credential input")
	// ErrEmptyAuthPayload is returned when the backend reports success but
	// the payload is missing the token or the user.
	ErrEmptyAuthPayload = errors.New("auth payload missing token or user")
	// ErrNilStore is returned by Builder.Build when no credential store was
	// provided.
	ErrNilStore = errors.New("nil credential store")
	// ErrNilGateway is returned by Builder.Build when no gateway was
	// provided.
	ErrNilGateway = errors.New("nil gateway")
)
