package uid

import "go.mongodb.org/mongo-driver/bson/primitive"

// ObjectID generates MongoDB ObjectID hex strings.
type ObjectID struct{}

// NewObjectID returns an ObjectID generator.
func NewObjectID() *ObjectID {
	return &ObjectID{}
}

// Generate returns a new ObjectID hex string.
func (o *ObjectID) Generate() string {
	return primitive.NewObjectID().Hex()
}
