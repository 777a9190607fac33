// Package mail defines the contracts for sending email messages.
//
// The rest of the application works with the Mail interface and Message
// payload; the concrete delivery mechanism (SMTP, API provider, etc) is
// implemented elsewhere in this package. Delivery is best effort by
// convention: callers dispatch without awaiting and absorb failures at the
// boundary.
package mail
