package entity

// OtpPurpose identifies which credential a challenge verifies.
type OtpPurpose int16

const (
	OtpPurposeUnknown OtpPurpose = 0

	// OtpPurposePhone verifies ownership of a phone number.
	OtpPurposePhone OtpPurpose = 1

	// OtpPurposeEmail verifies ownership of an email address.
	OtpPurposeEmail OtpPurpose = 2

	// OtpPurposeAadhaar verifies an Aadhaar number without resolving an account.
	OtpPurposeAadhaar OtpPurpose = 3
)

func OtpPurposeFromString(str string) OtpPurpose {
	switch str {
	case "PHONE":
		return OtpPurposePhone
	case "EMAIL":
		return OtpPurposeEmail
	case "AADHAAR":
		return OtpPurposeAadhaar
	default:
		return OtpPurposeUnknown
	}
}

func (op OtpPurpose) String() string {
	switch op {
	case OtpPurposePhone:
		return "PHONE"
	case OtpPurposeEmail:
		return "EMAIL"
	case OtpPurposeAadhaar:
		return "AADHAAR"
	default:
		return "Unknown"
	}
}

func (op OtpPurpose) IsUnknown() bool {
	switch op {
	case OtpPurposePhone, OtpPurposeEmail, OtpPurposeAadhaar:
		return false
	default:
		return true
	}
}

// UserRole is the coarse authorization role carried in session tokens.
type UserRole int16

const (
	UserRoleUnknown UserRole = 0
	UserRoleCitizen UserRole = 1
	UserRoleOfficer UserRole = 2
	UserRoleAdmin   UserRole = 3
)

func UserRoleFromString(str string) UserRole {
	switch str {
	case "CITIZEN":
		return UserRoleCitizen
	case "OFFICER":
		return UserRoleOfficer
	case "ADMIN":
		return UserRoleAdmin
	default:
		return UserRoleUnknown
	}
}

func (ur UserRole) String() string {
	switch ur {
	case UserRoleCitizen:
		return "CITIZEN"
	case UserRoleOfficer:
		return "OFFICER"
	case UserRoleAdmin:
		return "ADMIN"
	default:
		return "Unknown"
	}
}
