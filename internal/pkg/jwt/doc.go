// Package jwt issues and verifies short lived grant tokens.
//
// A grant proves that its holder passed a one-time code check for one user and
// one purpose (for example password_reset). Grants are HS512 signed and carry
// a unique id so a consumer can refuse to honour the same grant twice.
package jwt
