package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/gramconnect/gramconnect/internal/auth/entity"
	"github.com/gramconnect/gramconnect/internal/pkg/goerror"
)

func TestLogin(t *testing.T) {
	t.Run("EmailIdentifierIssuesEmailOtp", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		env.db.addUser(entity.User{ID: "u1", Email: "citizen@example.in", Role: entity.UserRoleCitizen})

		// Act
		out, err := env.uc.Login(context.Background(), LoginInput{Identifier: "Citizen@Example.in"})

		// Assert
		if err != nil {
			t.Fatalf("expected login to succeed, got %v", err)
		}
		if out.DebugCode == "" {
			t.Fatalf("expected an issued code")
		}
		if _, err := env.db.GetOtpChallenge(context.Background(), "citizen@example.in", entity.OtpPurposeEmail); err != nil {
			t.Fatalf("expected an email challenge, got %v", err)
		}
	})

	t.Run("PhoneIdentifierIssuesPhoneOtp", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		env.db.addUser(entity.User{ID: "u2", Phone: "9876543210", Role: entity.UserRoleCitizen})

		// Act
		_, err := env.uc.Login(context.Background(), LoginInput{Identifier: "9876543210"})

		// Assert
		if err != nil {
			t.Fatalf("expected login to succeed, got %v", err)
		}
		if _, err := env.db.GetOtpChallenge(context.Background(), "9876543210", entity.OtpPurposePhone); err != nil {
			t.Fatalf("expected a phone challenge, got %v", err)
		}
	})

	t.Run("UnknownAccountRefused", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)

		// Act
		_, err := env.uc.Login(context.Background(), LoginInput{Identifier: "stranger@example.in"})

		// Assert
		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeNotFound {
			t.Fatalf("expected account-not-found, got %v", err)
		}
	})

	t.Run("UnclassifiableIdentifierRejected", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)

		// Act
		_, err := env.uc.Login(context.Background(), LoginInput{Identifier: "not-an-identifier"})

		// Assert
		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeInvalidInput {
			t.Fatalf("expected invalid-input, got %v", err)
		}
	})
}
