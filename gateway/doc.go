// Package gateway is the HTTP transport for the Materna backend. It
// implements the root package's Gateway interface: it attaches the current
// bearer token to every request, decodes responses, and reports failures as
// structured [APIError] values instead of raw status codes.
//
// A registered auth-failure handler fires on any 401/403-class response so
// an expired session detected anywhere triggers global cleanup. The hook is
// suppressed on the login and register endpoints, where a 401 is expected
// user-input feedback rather than a dead session.
//
// # What this package must NOT do
//
//   - Read the credential store. The token comes from the session client
//     through TokenSource, the single source of truth.
//   - Retry or queue requests. Timeouts and retries belong to the embedder's
//     http.Client.
package gateway
