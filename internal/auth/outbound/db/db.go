package db

import (
	"context"
	"errors"

	"github.com/gramconnect/gramconnect/internal/pkg/goerror"
	"github.com/gramconnect/gramconnect/internal/pkg/instrument"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	colOtpChallenges = "otp_challenges"
	colUsers         = "users"
)

type DB struct {
	database *mongo.Database
	ins      instrument.Instrumentation
}

func NewDB(database *mongo.Database, ins instrument.Instrumentation) *DB {
	return &DB{
		database: database,
		ins:      ins,
	}
}

// EnsureIndexes creates the unique lineage index. The versioned write scheme
// depends on it: two racing inserts for the same (identifier, purpose) must
// collapse into one winner and one duplicate key error.
func (s *DB) EnsureIndexes(ctx context.Context) error {
	_, err := s.database.Collection(colOtpChallenges).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "identifier", Value: 1},
			{Key: "purpose", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("uniq_identifier_purpose"),
	})
	return err
}

func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return goerror.ErrNotFound
	}

	if mongo.IsDuplicateKeyError(err) {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
