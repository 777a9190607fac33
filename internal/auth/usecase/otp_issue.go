package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gramconnect/gramconnect/internal/auth/entity"
	"github.com/gramconnect/gramconnect/internal/pkg/goerror"
	"github.com/gramconnect/gramconnect/internal/pkg/mail"
	"github.com/sethvargo/go-retry"
)

type OtpIssueInput struct {
	Identifier string `validate:"required,max=254"`
	Purpose    string `validate:"required"`
}

type OtpIssueOutput struct {
	ExpiresAt       time.Time
	ResendRemaining int

	// DebugCode carries the plaintext code only when code echo is enabled
	// for non-production environments.
	DebugCode string
}

// OtpIssue creates or refreshes the OTP challenge for an identifier. The same
// operation serves both the first request and resends: an existing lineage
// keeps its resend history until it is consumed or purged.
func (s *Usecase) OtpIssue(ctx context.Context, in OtpIssueInput) (*OtpIssueOutput, error) {
	ctx, span := s.startSpan(ctx, "OtpIssue")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	purpose := entity.OtpPurposeFromString(strings.ToUpper(strings.TrimSpace(in.Purpose)))
	if purpose.IsUnknown() {
		return nil, goerror.NewBusiness("otp purpose is not recognized", goerror.CodeInvalidInput)
	}

	identifier := normalizeIdentifier(in.Identifier, purpose)

	var out *OtpIssueOutput
	err := s.withConflictRetry(ctx, func(ctx context.Context) error {
		challenge, ierr := s.issueOnce(ctx, identifier, purpose)
		if errors.Is(ierr, goerror.ErrConflict) {
			return retry.RetryableError(ierr)
		}
		if ierr != nil {
			return ierr
		}

		s.dispatchCode(ctx, challenge)

		out = &OtpIssueOutput{
			ExpiresAt:       challenge.ExpiresAt,
			ResendRemaining: s.resendLimit() - challenge.ResendCount,
		}
		if s.cfg.GetBool("modules.auth.expose_code") {
			out.DebugCode = challenge.Code
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			slog.ErrorContext(ctx, "otp issue lost every versioned write race", "purpose", purpose.String())
			return nil, goerror.NewServer(err)
		}
		return nil, err
	}

	return out, nil
}

func (s *Usecase) issueOnce(ctx context.Context, identifier string, purpose entity.OtpPurpose) (*entity.OtpChallenge, error) {
	now := s.clock.Now()

	prev, err := s.repoDB.GetOtpChallenge(ctx, identifier, purpose)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get otp challenge", "purpose", purpose.String(), "error", err)
		return nil, goerror.NewServer(err)
	}

	next := entity.OtpChallenge{
		ID:         s.oid.Generate(),
		Identifier: identifier,
		Purpose:    purpose,
		Code:       s.codes.Generate(),
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.cfg.GetMinute("modules.auth.otp_ttl_minutes")),
		Version:    1,
	}

	if prev != nil {
		if prev.IsBlocked(now) {
			slog.WarnContext(ctx, "otp issue refused while lineage is blocked", "purpose", purpose.String())
			return nil, goerror.NewBusiness("too many failed attempts, try again later", goerror.CodeTooManyRequest)
		}
		if prev.ResendCount >= s.resendLimit() {
			slog.WarnContext(ctx, "otp resend limit reached", "purpose", purpose.String(), "resend_count", prev.ResendCount)
			return nil, goerror.NewBusiness("otp resend limit reached", goerror.CodeTooManyRequest)
		}

		next.ID = prev.ID
		next.ResendCount = prev.ResendCount + 1
		next.Version = prev.Version + 1
	}

	if err := s.repoDB.SaveOtpChallenge(ctx, next); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			return nil, err
		}
		slog.ErrorContext(ctx, "failed to repo save otp challenge", "purpose", purpose.String(), "error", err)
		return nil, goerror.NewServer(err)
	}

	return &next, nil
}

// dispatchCode hands the code to its delivery channel. Delivery failures are
// logged and swallowed: the challenge is already persisted, and the caller can
// resend.
func (s *Usecase) dispatchCode(ctx context.Context, ch *entity.OtpChallenge) {
	switch ch.Purpose {
	case entity.OtpPurposeEmail:
		msg := mail.Message{
			To:       []string{ch.Identifier},
			Subject:  "Your GramConnect verification code",
			TextBody: fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", ch.Code, int(s.cfg.GetMinute("modules.auth.otp_ttl_minutes").Minutes())),
		}
		// Delivery outlives the request, so cancellation is detached while
		// correlation values are kept.
		s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
			if err := s.mailer.Send(ctx, msg); err != nil {
				return fmt.Errorf("send otp email: %w", err)
			}
			return nil
		})

	default:
		// No SMS or Aadhaar gateway is wired yet, so the code only reaches
		// the (maskable) log stream.
		slog.InfoContext(ctx, "otp code issued without delivery gateway",
			"purpose", ch.Purpose.String(), "code", ch.Code)
	}
}

func (s *Usecase) resendLimit() int {
	return s.cfg.GetInt("modules.auth.otp_resend_limit")
}

func normalizeIdentifier(raw string, purpose entity.OtpPurpose) string {
	id := strings.TrimSpace(raw)
	if purpose == entity.OtpPurposeEmail {
		id = strings.ToLower(id)
	}
	return id
}
