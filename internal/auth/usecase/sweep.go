package usecase

import (
	"context"
	"log/slog"
)

// SweepExpired deletes challenge lineages that have been dead long enough
// that neither their block window nor their resend history matters anymore.
// The retention lag keeps lockouts and resend counters effective even after
// the code itself expires.
func (s *Usecase) SweepExpired(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "SweepExpired")
	defer span.End()

	cutoff := s.clock.Now().Add(-s.cfg.GetMinute("modules.auth.sweep_retention_minutes"))

	deleted, err := s.repoDB.PurgeExpiredOtpChallenges(ctx, cutoff)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo purge expired otp challenges", "error", err)
		return err
	}

	if deleted > 0 {
		slog.InfoContext(ctx, "purged expired otp challenges", "deleted", deleted)
	}

	return nil
}
