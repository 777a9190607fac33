// Package jwt is helpers for working with JSON Web Tokens (JWT).
//
// It includes:
//   - A typed Claims wrapper (registered claims + strongly-typed payload).
//   - A symmetric HS512 implementation for generating and verifying tokens.
//
// The rest of the application treats this package as an opaque session
// issuer: it turns a (subject, role) pair into a bearer credential with an
// expiry.
package jwt
