package db

import (
	"context"
	"time"

	"github.com/gramconnect/gramconnect/internal/auth/entity"
	"github.com/gramconnect/gramconnect/internal/pkg/goerror"
	"go.mongodb.org/mongo-driver/bson"
)

type otpChallengeDoc struct {
	ID           string     `bson:"_id"`
	Identifier   string     `bson:"identifier"`
	Purpose      string     `bson:"purpose"`
	Code         string     `bson:"code"`
	Attempts     int        `bson:"attempts"`
	ResendCount  int        `bson:"resend_count"`
	CreatedAt    time.Time  `bson:"created_at"`
	ExpiresAt    time.Time  `bson:"expires_at"`
	BlockedUntil *time.Time `bson:"blocked_until,omitempty"`
	Version      int64      `bson:"version"`
}

func toOtpChallengeDoc(ch entity.OtpChallenge) otpChallengeDoc {
	return otpChallengeDoc{
		ID:           ch.ID,
		Identifier:   ch.Identifier,
		Purpose:      ch.Purpose.String(),
		Code:         ch.Code,
		Attempts:     ch.Attempts,
		ResendCount:  ch.ResendCount,
		CreatedAt:    ch.CreatedAt,
		ExpiresAt:    ch.ExpiresAt,
		BlockedUntil: ch.BlockedUntil,
		Version:      ch.Version,
	}
}

func (d otpChallengeDoc) toEntity() *entity.OtpChallenge {
	return &entity.OtpChallenge{
		ID:           d.ID,
		Identifier:   d.Identifier,
		Purpose:      entity.OtpPurposeFromString(d.Purpose),
		Code:         d.Code,
		Attempts:     d.Attempts,
		ResendCount:  d.ResendCount,
		CreatedAt:    d.CreatedAt,
		ExpiresAt:    d.ExpiresAt,
		BlockedUntil: d.BlockedUntil,
		Version:      d.Version,
	}
}

func (s *DB) GetOtpChallenge(ctx context.Context, identifier string, purpose entity.OtpPurpose) (_ *entity.OtpChallenge, err error) {
	ctx, span := s.startSpan(ctx, "GetOtpChallenge")
	defer func() { s.endSpan(span, err) }()

	filter := bson.D{
		{Key: "identifier", Value: identifier},
		{Key: "purpose", Value: purpose.String()},
	}

	var doc otpChallengeDoc
	if err = s.mapError(s.database.Collection(colOtpChallenges).FindOne(ctx, filter).Decode(&doc)); err != nil {
		return nil, err
	}

	return doc.toEntity(), nil
}

func (s *DB) SaveOtpChallenge(ctx context.Context, ch entity.OtpChallenge) (err error) {
	ctx, span := s.startSpan(ctx, "SaveOtpChallenge")
	defer func() { s.endSpan(span, err) }()

	col := s.database.Collection(colOtpChallenges)

	if ch.Version == 1 {
		_, err = col.InsertOne(ctx, toOtpChallengeDoc(ch))
		return s.mapError(err)
	}

	filter := bson.D{
		{Key: "_id", Value: ch.ID},
		{Key: "version", Value: ch.Version - 1},
	}

	res, err := col.ReplaceOne(ctx, filter, toOtpChallengeDoc(ch))
	if err != nil {
		return s.mapError(err)
	}
	if res.MatchedCount == 0 {
		return goerror.ErrConflict
	}

	return nil
}

func (s *DB) ConsumeOtpChallenge(ctx context.Context, ch entity.OtpChallenge) (err error) {
	ctx, span := s.startSpan(ctx, "ConsumeOtpChallenge")
	defer func() { s.endSpan(span, err) }()

	filter := bson.D{
		{Key: "_id", Value: ch.ID},
		{Key: "version", Value: ch.Version},
	}

	res, err := s.database.Collection(colOtpChallenges).DeleteOne(ctx, filter)
	if err != nil {
		return s.mapError(err)
	}
	if res.DeletedCount == 0 {
		return goerror.ErrConflict
	}

	return nil
}

func (s *DB) PurgeExpiredOtpChallenges(ctx context.Context, before time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "PurgeExpiredOtpChallenges")
	defer func() { s.endSpan(span, err) }()

	filter := bson.D{
		{Key: "expires_at", Value: bson.D{{Key: "$lt", Value: before}}},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "blocked_until", Value: bson.D{{Key: "$exists", Value: false}}}},
			bson.D{{Key: "blocked_until", Value: bson.D{{Key: "$lt", Value: before}}}},
		}},
	}

	res, err := s.database.Collection(colOtpChallenges).DeleteMany(ctx, filter)
	if err != nil {
		return 0, s.mapError(err)
	}

	return res.DeletedCount, nil
}
