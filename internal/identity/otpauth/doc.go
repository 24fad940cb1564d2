// Package otpauth issues and validates one-time numeric codes.
//
// A user holds at most one active code. Issuing replaces the previous code;
// a successful validation consumes it; an expired code is removed the first
// time it is observed. A record also dies on the wrong guess that reaches
// its attempt limit. Codes are stored only as a keyed digest and compared
// in constant time. Stores make the load, check and delete of a validation
// atomic per user, so of two concurrent validations of the same code exactly
// one succeeds.
package otpauth
