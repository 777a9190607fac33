package usecase

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/gramconnect/gramconnect/internal/auth/entity"
	"github.com/gramconnect/gramconnect/internal/pkg/goerror"
)

var (
	emailPattern = regexp.MustCompile(`^[\w-.]+@([\w-]+\.)+[\w-]{2,4}$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
)

type LoginInput struct {
	Identifier string `validate:"required,max=254"`
}

// Login starts passwordless sign-in: it classifies the identifier as an email
// address or phone number, requires an existing account, and issues an OTP
// challenge for it.
func (s *Usecase) Login(ctx context.Context, in LoginInput) (*OtpIssueOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	identifier := strings.TrimSpace(in.Identifier)

	var purpose entity.OtpPurpose
	switch {
	case strings.Contains(identifier, "@") && emailPattern.MatchString(strings.ToLower(identifier)):
		purpose = entity.OtpPurposeEmail
	case phonePattern.MatchString(identifier):
		purpose = entity.OtpPurposePhone
	default:
		return nil, goerror.NewBusiness("identifier is not a valid email or phone number", goerror.CodeInvalidInput)
	}

	identifier = normalizeIdentifier(identifier, purpose)

	var err error
	if purpose == entity.OtpPurposeEmail {
		_, err = s.repoDB.GetUserByEmail(ctx, identifier)
	} else {
		_, err = s.repoDB.GetUserByPhone(ctx, identifier)
	}
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "login attempt for unknown identifier", "purpose", purpose.String())
		return nil, goerror.NewBusiness("account not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user for login", "purpose", purpose.String(), "error", err)
		return nil, goerror.NewServer(err)
	}

	return s.OtpIssue(ctx, OtpIssueInput{Identifier: identifier, Purpose: purpose.String()})
}
