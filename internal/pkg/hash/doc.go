// Package hash provides helpers for hashing and verifying secrets.
//
// Passwords go through a slow, salted hasher (bcrypt or argon2id). One-time
// codes go through HMACSHA256: they are short lived and must be comparable in
// constant time without a per-record salt lookup.
package hash
