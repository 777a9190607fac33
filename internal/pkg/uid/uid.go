// Package uid provides string identifier generation: UUIDs for token IDs and
// ObjectID hex strings for document identity.
package uid

// StringID generates opaque string identifiers.
type StringID interface {
	Generate() string
}
