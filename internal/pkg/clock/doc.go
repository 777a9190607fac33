// Package clock provides a tiny time abstraction.
//
// Code that reasons about expiry and lockout windows depends on the Clocker
// interface instead of calling time.Now() directly, so tests can swap in a
// fake clock that returns a deterministic time.
package clock
