// Package clock provides a tiny time abstraction.
//
// Business logic depends on the Clocker interface instead of calling
// time.Now() directly, so expiry rules for one-time codes and password age
// can be exercised with a Fixed clock in tests.
package clock
