package db

import (
	"context"

	"github.com/gramconnect/gramconnect/internal/auth/entity"
	"go.mongodb.org/mongo-driver/bson"
)

type userDoc struct {
	ID               string `bson:"_id"`
	FullName         string `bson:"full_name"`
	Email            string `bson:"email"`
	Phone            string `bson:"phone"`
	Role             string `bson:"role"`
	ProfileCompleted bool   `bson:"profile_completed"`
}

func (d userDoc) toEntity() *entity.User {
	return &entity.User{
		ID:               d.ID,
		FullName:         d.FullName,
		Email:            d.Email,
		Phone:            d.Phone,
		Role:             entity.UserRoleFromString(d.Role),
		ProfileCompleted: d.ProfileCompleted,
	}
}

func (s *DB) GetUserByEmail(ctx context.Context, email string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByEmail")
	defer func() { s.endSpan(span, err) }()

	var doc userDoc
	filter := bson.D{{Key: "email", Value: email}}
	if err = s.mapError(s.database.Collection(colUsers).FindOne(ctx, filter).Decode(&doc)); err != nil {
		return nil, err
	}

	return doc.toEntity(), nil
}

func (s *DB) GetUserByPhone(ctx context.Context, phone string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByPhone")
	defer func() { s.endSpan(span, err) }()

	var doc userDoc
	filter := bson.D{{Key: "phone", Value: phone}}
	if err = s.mapError(s.database.Collection(colUsers).FindOne(ctx, filter).Decode(&doc)); err != nil {
		return nil, err
	}

	return doc.toEntity(), nil
}
