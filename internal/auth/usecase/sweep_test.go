package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/gramconnect/gramconnect/internal/auth/entity"
)

func TestSweepExpired(t *testing.T) {
	t.Run("KeepsFreshAndRecentlyExpired", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		if _, err := env.uc.OtpIssue(context.Background(), OtpIssueInput{Identifier: "citizen@example.in", Purpose: "EMAIL"}); err != nil {
			t.Fatalf("issue failed: %v", err)
		}
		env.clock.advance(30 * time.Minute) // expired, but inside the retention window

		// Act
		if err := env.uc.SweepExpired(context.Background()); err != nil {
			t.Fatalf("sweep failed: %v", err)
		}

		// Assert
		if _, err := env.db.GetOtpChallenge(context.Background(), "citizen@example.in", entity.OtpPurposeEmail); err != nil {
			t.Fatalf("expected lineage to survive inside retention, got %v", err)
		}
	})

	t.Run("PurgesLongDeadLineages", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		if _, err := env.uc.OtpIssue(context.Background(), OtpIssueInput{Identifier: "citizen@example.in", Purpose: "EMAIL"}); err != nil {
			t.Fatalf("issue failed: %v", err)
		}
		env.clock.advance(2 * time.Hour)

		// Act
		if err := env.uc.SweepExpired(context.Background()); err != nil {
			t.Fatalf("sweep failed: %v", err)
		}

		// Assert
		if _, err := env.db.GetOtpChallenge(context.Background(), "citizen@example.in", entity.OtpPurposeEmail); err == nil {
			t.Fatalf("expected lineage to be purged")
		}
	})

	t.Run("KeepsLineagesWithRecentBlocks", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		if _, err := env.uc.OtpIssue(context.Background(), OtpIssueInput{Identifier: "citizen@example.in", Purpose: "EMAIL"}); err != nil {
			t.Fatalf("issue failed: %v", err)
		}
		// burn all attempts right before expiry so the block outlives the code
		for range 3 {
			_, _ = env.uc.OtpVerify(context.Background(), OtpVerifyInput{Identifier: "citizen@example.in", Purpose: "EMAIL", Code: "999999"})
		}
		env.clock.advance(70 * time.Minute)

		// Act
		if err := env.uc.SweepExpired(context.Background()); err != nil {
			t.Fatalf("sweep failed: %v", err)
		}

		// Assert
		if _, err := env.db.GetOtpChallenge(context.Background(), "citizen@example.in", entity.OtpPurposeEmail); err != nil {
			t.Fatalf("expected blocked lineage handling to honor the block timestamp, got %v", err)
		}
	})
}
