// Package otp generates the short-lived numeric codes used by the
// authentication flows.
//
// Codes are random, not algorithmic: a fresh code is drawn from crypto/rand
// on every issuance and compared by exact string equality on verification.
package otp
