// Package store defines the credential store primitive the session client
// persists through, plus the bundled adapters: an in-process [MemoryStore]
// and a Redis-backed [RedisStore].
//
// The store is an opaque string key-value surface with bulk removal and key
// enumeration. The session client layers its wipe and restore semantics on
// top; adapters only move bytes.
//
// # What this package must NOT do
//
//   - Encrypt values or interpret them. Serialization belongs to the caller.
//   - Import the root materna package (no import cycles).
package store
