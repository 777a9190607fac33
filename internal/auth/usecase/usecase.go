package usecase

import (
	"context"
	"time"

	"github.com/gramconnect/gramconnect/internal/auth/entity"
	"github.com/gramconnect/gramconnect/internal/pkg/clock"
	"github.com/gramconnect/gramconnect/internal/pkg/config"
	"github.com/gramconnect/gramconnect/internal/pkg/goroutine"
	"github.com/gramconnect/gramconnect/internal/pkg/instrument"
	"github.com/gramconnect/gramconnect/internal/pkg/jwt"
	"github.com/gramconnect/gramconnect/internal/pkg/mail"
	"github.com/gramconnect/gramconnect/internal/pkg/otp"
	"github.com/gramconnect/gramconnect/internal/pkg/uid"
	"github.com/gramconnect/gramconnect/internal/pkg/validator"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/trace"
)

type VerifiedLoginEvent struct {
	UserID     string
	Identifier string
	Purpose    string
	LoginAt    time.Time
}

type repoMessaging interface {
	PublishVerifiedLogin(ctx context.Context, msg VerifiedLoginEvent) error
}

type repoDB interface {
	GetOtpChallenge(ctx context.Context, identifier string, purpose entity.OtpPurpose) (*entity.OtpChallenge, error)

	// SaveOtpChallenge writes a challenge guarded by its version: Version 1
	// inserts a fresh lineage, Version N replaces the document at N-1. A lost
	// race surfaces as goerror.ErrConflict.
	SaveOtpChallenge(ctx context.Context, ch entity.OtpChallenge) error

	// ConsumeOtpChallenge deletes the challenge at exactly ch.Version,
	// returning goerror.ErrConflict when another writer got there first.
	ConsumeOtpChallenge(ctx context.Context, ch entity.OtpChallenge) error

	PurgeExpiredOtpChallenges(ctx context.Context, before time.Time) (int64, error)

	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*entity.User, error)
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	mailer        mail.Mail
	validator     validator.Validator
	cfg           config.Config
	codes         otp.Generator
	oid           uid.StringID
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Mailer        mail.Mail
	Validator     validator.Validator
	Config        config.Config
	Codes         otp.Generator
	OID           uid.StringID
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		mailer:        dep.Mailer,
		validator:     dep.Validator,
		cfg:           dep.Config,
		codes:         dep.Codes,
		oid:           dep.OID,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}

// withConflictRetry replays a read-decide-write round when a versioned write
// loses its race. The loser re-reads current state, so a bounded number of
// replays is enough.
func (s *Usecase) withConflictRetry(ctx context.Context, f func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(4, retry.NewConstant(15*time.Millisecond))
	return retry.Do(ctx, backoff, f)
}
