// Package mail sends email.
//
// Use cases work with the Mail interface and the Message payload; SMTP is the
// delivery mechanism implemented here, with retry on transient failures.
package mail
