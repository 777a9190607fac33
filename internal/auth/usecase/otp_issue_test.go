package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gramconnect/gramconnect/internal/auth/entity"
	"github.com/gramconnect/gramconnect/internal/pkg/goerror"
)

func TestOtpIssue(t *testing.T) {
	t.Run("FirstIssueCreatesChallenge", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		in := OtpIssueInput{Identifier: "citizen@example.in", Purpose: "EMAIL"}

		// Act
		out, err := env.uc.OtpIssue(context.Background(), in)

		// Assert
		if err != nil {
			t.Fatalf("expected issue to succeed, got %v", err)
		}
		if out.DebugCode != "111111" {
			t.Fatalf("expected first generated code to be echoed, got %q", out.DebugCode)
		}
		if want := env.clock.Now().Add(5 * time.Minute); !out.ExpiresAt.Equal(want) {
			t.Fatalf("expected expiry %v, got %v", want, out.ExpiresAt)
		}
		if out.ResendRemaining != 3 {
			t.Fatalf("expected full resend budget, got %d", out.ResendRemaining)
		}

		ch, err := env.db.GetOtpChallenge(context.Background(), "citizen@example.in", entity.OtpPurposeEmail)
		if err != nil {
			t.Fatalf("expected stored challenge, got %v", err)
		}
		if ch.Version != 1 || ch.ResendCount != 0 || ch.Attempts != 0 {
			t.Fatalf("unexpected fresh challenge state: %+v", ch)
		}
	})

	t.Run("EmailIdentifierIsNormalized", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)

		// Act
		_, err := env.uc.OtpIssue(context.Background(), OtpIssueInput{Identifier: "  Citizen@Example.IN ", Purpose: "email"})

		// Assert
		if err != nil {
			t.Fatalf("expected issue to succeed, got %v", err)
		}
		if _, err := env.db.GetOtpChallenge(context.Background(), "citizen@example.in", entity.OtpPurposeEmail); err != nil {
			t.Fatalf("expected challenge stored under normalized identifier, got %v", err)
		}
	})

	t.Run("ResendReplacesCodeAndKeepsLineage", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		in := OtpIssueInput{Identifier: "9876543210", Purpose: "PHONE"}
		if _, err := env.uc.OtpIssue(context.Background(), in); err != nil {
			t.Fatalf("first issue failed: %v", err)
		}

		// Act
		out, err := env.uc.OtpIssue(context.Background(), in)

		// Assert
		if err != nil {
			t.Fatalf("expected resend to succeed, got %v", err)
		}
		if out.DebugCode != "222222" {
			t.Fatalf("expected a fresh code on resend, got %q", out.DebugCode)
		}
		if out.ResendRemaining != 2 {
			t.Fatalf("expected resend budget to shrink, got %d", out.ResendRemaining)
		}

		ch, _ := env.db.GetOtpChallenge(context.Background(), "9876543210", entity.OtpPurposePhone)
		if ch.ResendCount != 1 || ch.Version != 2 || ch.Attempts != 0 {
			t.Fatalf("unexpected lineage state after resend: %+v", ch)
		}
	})

	t.Run("ResendCountSurvivesExpiry", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		in := OtpIssueInput{Identifier: "9876543210", Purpose: "PHONE"}
		if _, err := env.uc.OtpIssue(context.Background(), in); err != nil {
			t.Fatalf("first issue failed: %v", err)
		}
		env.clock.advance(10 * time.Minute)

		// Act
		out, err := env.uc.OtpIssue(context.Background(), in)

		// Assert
		if err != nil {
			t.Fatalf("expected reissue after expiry to succeed, got %v", err)
		}
		if out.ResendRemaining != 2 {
			t.Fatalf("expected expiry to keep the resend history, got remaining %d", out.ResendRemaining)
		}
	})

	t.Run("ResendLimitExceeded", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		in := OtpIssueInput{Identifier: "citizen@example.in", Purpose: "EMAIL"}
		for range 4 {
			if _, err := env.uc.OtpIssue(context.Background(), in); err != nil {
				t.Fatalf("issue within budget failed: %v", err)
			}
		}

		// Act
		_, err := env.uc.OtpIssue(context.Background(), in)

		// Assert
		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeTooManyRequest {
			t.Fatalf("expected too-many-requests error, got %v", err)
		}
	})

	t.Run("IssueRefusedWhileBlocked", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		in := OtpIssueInput{Identifier: "citizen@example.in", Purpose: "EMAIL"}
		if _, err := env.uc.OtpIssue(context.Background(), in); err != nil {
			t.Fatalf("issue failed: %v", err)
		}
		for range 3 {
			_, _ = env.uc.OtpVerify(context.Background(), OtpVerifyInput{Identifier: "citizen@example.in", Purpose: "EMAIL", Code: "999999"})
		}

		// Act
		_, err := env.uc.OtpIssue(context.Background(), in)

		// Assert
		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeTooManyRequest {
			t.Fatalf("expected issue to be refused during lockout, got %v", err)
		}
	})

	t.Run("IssueAllowedAfterBlockExpires", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		in := OtpIssueInput{Identifier: "citizen@example.in", Purpose: "EMAIL"}
		if _, err := env.uc.OtpIssue(context.Background(), in); err != nil {
			t.Fatalf("issue failed: %v", err)
		}
		for range 3 {
			_, _ = env.uc.OtpVerify(context.Background(), OtpVerifyInput{Identifier: "citizen@example.in", Purpose: "EMAIL", Code: "999999"})
		}
		env.clock.advance(16 * time.Minute)

		// Act
		out, err := env.uc.OtpIssue(context.Background(), in)

		// Assert
		if err != nil {
			t.Fatalf("expected issue to succeed after lockout lapsed, got %v", err)
		}
		if out.DebugCode == "" {
			t.Fatalf("expected a fresh code after lockout lapsed")
		}
	})

	t.Run("EmailPurposeDispatchesMail", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)

		// Act
		_, err := env.uc.OtpIssue(context.Background(), OtpIssueInput{Identifier: "citizen@example.in", Purpose: "EMAIL"})
		env.waitAsync()

		// Assert
		if err != nil {
			t.Fatalf("expected issue to succeed, got %v", err)
		}
		msgs := env.mailer.messages()
		if len(msgs) != 1 {
			t.Fatalf("expected one mail dispatch, got %d", len(msgs))
		}
		if msgs[0].To[0] != "citizen@example.in" {
			t.Fatalf("unexpected mail recipient: %v", msgs[0].To)
		}
	})

	t.Run("MailFailureDoesNotFailIssue", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		env.mailer.fail = errors.New("smtp unreachable")

		// Act
		out, err := env.uc.OtpIssue(context.Background(), OtpIssueInput{Identifier: "citizen@example.in", Purpose: "EMAIL"})
		env.waitAsync()

		// Assert
		if err != nil {
			t.Fatalf("expected issue to succeed despite delivery failure, got %v", err)
		}
		if out.DebugCode == "" {
			t.Fatalf("expected challenge to be persisted and echoed")
		}
	})

	t.Run("UnknownPurposeRejected", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)

		// Act
		_, err := env.uc.OtpIssue(context.Background(), OtpIssueInput{Identifier: "citizen@example.in", Purpose: "PASSPORT"})

		// Assert
		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeInvalidInput {
			t.Fatalf("expected invalid-input error, got %v", err)
		}
	})

	t.Run("EmptyIdentifierRejected", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)

		// Act
		_, err := env.uc.OtpIssue(context.Background(), OtpIssueInput{Identifier: "", Purpose: "EMAIL"})

		// Assert
		if err == nil {
			t.Fatalf("expected validation error for empty identifier")
		}
	})
}
