package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/soporteya/auth-service/internal/core/domain"
)

const sessionCollection = "sessions"

// SessionRepository persists refresh-token rows, one per login/device.
type SessionRepository struct {
	coll *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{coll: db.Collection(sessionCollection)}
}

type mongoSession struct {
	ID         string `bson:"_id"`
	UserID     string `bson:"user_id"`
	TokenHash  string `bson:"token_hash"`
	DeviceName string `bson:"device_name,omitempty"`
	IPAddress  string `bson:"ip_address,omitempty"`
	UserAgent  string `bson:"user_agent,omitempty"`
	IssuedAt   int64  `bson:"issued_at"`
	LastUsedAt int64  `bson:"last_used_at"`
	ExpiresAt  int64  `bson:"expires_at"`
	RevokedAt  *int64 `bson:"revoked_at,omitempty"`
}

func (r *SessionRepository) Insert(ctx context.Context, s *domain.Session) error {
	doc := mongoSession{
		ID:         s.ID,
		UserID:     s.UserID,
		TokenHash:  s.TokenHash,
		DeviceName: s.DeviceName,
		IPAddress:  s.IPAddress,
		UserAgent:  s.UserAgent,
		IssuedAt:   s.IssuedAt.Unix(),
		LastUsedAt: s.LastUsedAt.Unix(),
		ExpiresAt:  s.ExpiresAt.Unix(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *SessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	return r.findOne(ctx, bson.M{"token_hash": tokenHash})
}

// RevokeIfLive is the conditional write rotation depends on: the filter
// matches only an unrevoked row, so concurrent revokes of the same session
// admit exactly one winner.
func (r *SessionRepository) RevokeIfLive(ctx context.Context, id string, at time.Time) error {
	filter := bson.M{"_id": id, "revoked_at": bson.M{"$exists": false}}
	update := bson.M{"$set": bson.M{"revoked_at": at.Unix()}}

	res := r.coll.FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.Before))
	if err := res.Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return domain.ErrSessionNotFound
		}
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (r *SessionRepository) RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	filter := bson.M{"user_id": userID, "revoked_at": bson.M{"$exists": false}}
	update := bson.M{"$set": bson.M{"revoked_at": at.Unix()}}

	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("revoke all sessions: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *SessionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	update := bson.M{"$set": bson.M{"last_used_at": at.Unix()}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

func (r *SessionRepository) ListActiveForUser(ctx context.Context, userID string, now time.Time) ([]domain.Session, error) {
	filter := bson.M{
		"user_id":    userID,
		"revoked_at": bson.M{"$exists": false},
		"expires_at": bson.M{"$gt": now.Unix()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "last_used_at", Value: -1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []domain.Session
	for cursor.Next(ctx) {
		var ms mongoSession
		if err := cursor.Decode(&ms); err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		sessions = append(sessions, fromMongoSession(&ms))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func (r *SessionRepository) findOne(ctx context.Context, filter bson.M) (*domain.Session, error) {
	var ms mongoSession
	if err := r.coll.FindOne(ctx, filter).Decode(&ms); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	s := fromMongoSession(&ms)
	return &s, nil
}

func fromMongoSession(ms *mongoSession) domain.Session {
	s := domain.Session{
		ID:         ms.ID,
		UserID:     ms.UserID,
		TokenHash:  ms.TokenHash,
		DeviceName: ms.DeviceName,
		IPAddress:  ms.IPAddress,
		UserAgent:  ms.UserAgent,
		IssuedAt:   unixToTime(ms.IssuedAt),
		LastUsedAt: unixToTime(ms.LastUsedAt),
		ExpiresAt:  unixToTime(ms.ExpiresAt),
	}
	if ms.RevokedAt != nil {
		ts := unixToTime(*ms.RevokedAt)
		s.RevokedAt = &ts
	}
	return s
}
