package event

import "time"

const VerifiedLoginDestination string = "auth_verified_login"
const VerifiedLoginConsumerNotification string = "auth_verified_login_notification"

type VerifiedLoginMessage struct {
	UserID     string    `json:"user_id"`
	Identifier string    `json:"identifier"`
	Purpose    string    `json:"purpose"`
	LoginAt    time.Time `json:"login_at"`
}
