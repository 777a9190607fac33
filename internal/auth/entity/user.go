package entity

// User is the citizen profile attached to a verified login.
type User struct {
	ID               string
	FullName         string
	Email            string
	Phone            string
	Role             UserRole
	ProfileCompleted bool
}
