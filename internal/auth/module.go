// Package auth wires the OTP authentication module: challenge storage,
// verification, session issuance, and the expiry sweeper.
package auth

import (
	"context"
	"time"

	"github.com/gramconnect/gramconnect/internal/auth/outbound/db"
	"github.com/gramconnect/gramconnect/internal/auth/outbound/mq"
	"github.com/gramconnect/gramconnect/internal/auth/usecase"
	"github.com/gramconnect/gramconnect/internal/pkg/clock"
	"github.com/gramconnect/gramconnect/internal/pkg/config"
	"github.com/gramconnect/gramconnect/internal/pkg/goroutine"
	"github.com/gramconnect/gramconnect/internal/pkg/instrument"
	"github.com/gramconnect/gramconnect/internal/pkg/jwt"
	"github.com/gramconnect/gramconnect/internal/pkg/mail"
	"github.com/gramconnect/gramconnect/internal/pkg/messaging"
	"github.com/gramconnect/gramconnect/internal/pkg/otp"
	"github.com/gramconnect/gramconnect/internal/pkg/uid"
	"github.com/gramconnect/gramconnect/internal/pkg/validator"
	"go.mongodb.org/mongo-driver/mongo"
)

type Dependency struct {
	Database   *mongo.Database            `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Mailer     mail.Mail                  `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	OID        uid.StringID               `validate:"required"`
	Codes      otp.Generator              `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
}

// New builds the module and starts its background sweeper. The returned
// usecase is the module's public surface for transports.
func New(ctx context.Context, dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	dbAuth := db.NewDB(dep.Database, dep.Instrument)
	if err := dbAuth.EnsureIndexes(ctx); err != nil {
		return nil, err
	}

	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        dbAuth,
		RepoMessaging: repoMsg,
		Mailer:        dep.Mailer,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Codes:         dep.Codes,
		OID:           dep.OID,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	startSweeper(ctx, dep, uc)

	return uc, nil
}

func startSweeper(ctx context.Context, dep Dependency, uc *usecase.Usecase) {
	interval := dep.Config.GetMinute("modules.auth.sweep_interval_minutes")
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	dep.Goroutine.Go(ctx, func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				// Errors are logged inside; the next tick retries.
				_ = uc.SweepExpired(ctx)
			}
		}
	})
}
