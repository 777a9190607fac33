package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gramconnect/gramconnect/internal/auth/entity"
	"github.com/gramconnect/gramconnect/internal/pkg/goerror"
	"github.com/sethvargo/go-retry"
)

type OtpVerifyInput struct {
	Identifier string `validate:"required,max=254"`
	Purpose    string `validate:"required"`
	Code       string `validate:"required,numeric"`
}

type OtpVerifyOutput struct {
	Verified bool

	// AccessToken and User are empty for purposes that do not resolve an
	// account, such as Aadhaar verification.
	AccessToken      string
	UserID           string
	FullName         string
	ProfileCompleted bool
}

// OtpVerify checks a submitted code against the active challenge. A correct
// code consumes the challenge and, for account-bound purposes, issues a
// session token. A wrong code burns an attempt and may lock the lineage.
func (s *Usecase) OtpVerify(ctx context.Context, in OtpVerifyInput) (*OtpVerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "OtpVerify")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	purpose := entity.OtpPurposeFromString(strings.ToUpper(strings.TrimSpace(in.Purpose)))
	if purpose.IsUnknown() {
		return nil, goerror.NewBusiness("otp purpose is not recognized", goerror.CodeInvalidInput)
	}

	identifier := normalizeIdentifier(in.Identifier, purpose)

	err := s.withConflictRetry(ctx, func(ctx context.Context) error {
		verr := s.verifyOnce(ctx, identifier, purpose, in.Code)
		if errors.Is(verr, goerror.ErrConflict) {
			return retry.RetryableError(verr)
		}
		return verr
	})
	if err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			slog.ErrorContext(ctx, "otp verify lost every versioned write race", "purpose", purpose.String())
			return nil, goerror.NewServer(err)
		}
		return nil, err
	}

	if purpose == entity.OtpPurposeAadhaar {
		return &OtpVerifyOutput{Verified: true}, nil
	}

	return s.establishSession(ctx, identifier, purpose)
}

func (s *Usecase) verifyOnce(ctx context.Context, identifier string, purpose entity.OtpPurpose, code string) error {
	now := s.clock.Now()

	challenge, err := s.repoDB.GetOtpChallenge(ctx, identifier, purpose)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp verify without active challenge", "purpose", purpose.String())
		return goerror.NewBusiness("otp not found or expired", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get otp challenge", "purpose", purpose.String(), "error", err)
		return goerror.NewServer(err)
	}

	// Expiry is indistinguishable from absence on purpose, and wins over the
	// block state for the same reason.
	if challenge.IsExpired(now) {
		slog.WarnContext(ctx, "otp verify against expired challenge", "purpose", purpose.String())
		return goerror.NewBusiness("otp not found or expired", goerror.CodeNotFound)
	}

	if challenge.IsBlocked(now) {
		slog.WarnContext(ctx, "otp verify refused while lineage is blocked", "purpose", purpose.String())
		return goerror.NewBusiness("too many failed attempts, try again later", goerror.CodeTooManyRequest)
	}

	if subtle.ConstantTimeCompare([]byte(challenge.Code), []byte(code)) != 1 {
		return s.recordFailure(ctx, challenge, now)
	}

	if err := s.repoDB.ConsumeOtpChallenge(ctx, *challenge); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			return err
		}
		slog.ErrorContext(ctx, "failed to repo consume otp challenge", "purpose", purpose.String(), "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

func (s *Usecase) recordFailure(ctx context.Context, challenge *entity.OtpChallenge, now time.Time) error {
	failed := *challenge
	failed.Attempts++
	failed.Version++

	maxAttempts := s.cfg.GetInt("modules.auth.otp_max_attempts")
	if failed.Attempts >= maxAttempts {
		until := now.Add(s.cfg.GetMinute("modules.auth.otp_block_minutes"))
		failed.BlockedUntil = &until
		slog.WarnContext(ctx, "otp lineage blocked after repeated failures",
			"purpose", challenge.Purpose.String(), "attempts", failed.Attempts)
	}

	if err := s.repoDB.SaveOtpChallenge(ctx, failed); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			return err
		}
		slog.ErrorContext(ctx, "failed to repo record otp failure", "purpose", challenge.Purpose.String(), "error", err)
		return goerror.NewServer(err)
	}

	return goerror.NewBusiness("invalid otp code", goerror.CodeInvalidInput)
}

func (s *Usecase) establishSession(ctx context.Context, identifier string, purpose entity.OtpPurpose) (*OtpVerifyOutput, error) {
	var (
		user *entity.User
		err  error
	)
	switch purpose {
	case entity.OtpPurposeEmail:
		user, err = s.repoDB.GetUserByEmail(ctx, identifier)
	case entity.OtpPurposePhone:
		user, err = s.repoDB.GetUserByPhone(ctx, identifier)
	}
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "verified identifier has no account", "purpose", purpose.String())
		return nil, goerror.NewBusiness("account not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user for session", "purpose", purpose.String(), "error", err)
		return nil, goerror.NewServer(err)
	}

	token, err := s.jwt.Generate(user.ID, user.Role.String())
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	event := VerifiedLoginEvent{
		UserID:     user.ID,
		Identifier: identifier,
		Purpose:    purpose.String(),
		LoginAt:    s.clock.Now(),
	}
	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		return s.repoMessaging.PublishVerifiedLogin(ctx, event)
	})

	return &OtpVerifyOutput{
		Verified:         true,
		AccessToken:      token,
		UserID:           user.ID,
		FullName:         user.FullName,
		ProfileCompleted: user.ProfileCompleted,
	}, nil
}
