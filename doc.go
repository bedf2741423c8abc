// Package materna implements the session lifecycle manager for the Materna
// maternal-health mobile client: it owns the current bearer credential,
// mediates every authenticated request, detects authentication failure, and
// guarantees that logout (voluntary or forced) leaves no residual credential
// material behind.
//
// The package is the public surface. It exposes [Client], [Builder], [Config],
// and value types (UserRecord, LoginResult, MetricsSnapshot, etc.). Credential
// store adapters live under store/ and the HTTP gateway under gateway/; both
// are consumed through interfaces so tests and embedders can substitute their
// own.
//
// Client methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
//   - Client never reads the store to build request headers; the gateway pulls
//     the token from Client through [TokenSource], keeping in-memory state the
//     single source of truth.
//   - Client never inspects HTTP status codes; the gateway reports structured
//     error kinds and Client branches on those.
//
// # What this package must NOT do
//
//   - Hash passwords, mint or verify tokens, or enforce authorization — the
//     backend owns all of that. The client only holds what it was issued.
//   - Encrypt stored credentials. The store is an opaque key-value primitive,
//     not a secure enclave.
package materna
