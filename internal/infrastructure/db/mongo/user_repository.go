package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/soporteya/auth-service/internal/core/domain"
)

const userCollection = "users"

// UserRepository persists users with their role grants embedded in the
// user document, so token issuance is a single read.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(userCollection)}
}

type mongoGrant struct {
	ID        string  `bson:"id"`
	Code      string  `bson:"code"`
	CompanyID *string `bson:"company_id,omitempty"`
	Active    bool    `bson:"active"`
	CreatedAt int64   `bson:"created_at"`
}

type mongoUser struct {
	ID            string       `bson:"_id"`
	Email         string       `bson:"email"`
	PasswordHash  string       `bson:"password_hash"`
	FirstName     string       `bson:"first_name,omitempty"`
	LastName      string       `bson:"last_name,omitempty"`
	Status        string       `bson:"status"`
	EmailVerified bool         `bson:"email_verified"`
	Grants        []mongoGrant `bson:"grants,omitempty"`
	LastLoginAt   *int64       `bson:"last_login_at,omitempty"`
	LastLoginIP   string       `bson:"last_login_ip,omitempty"`
	CreatedAt     int64        `bson:"created_at"`
	UpdatedAt     int64        `bson:"updated_at"`
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if _, err := r.coll.InsertOne(ctx, toMongoUser(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) AddGrant(ctx context.Context, userID string, grant domain.Grant) error {
	update := bson.M{
		"$push": bson.M{"grants": mongoGrant{
			ID:        grant.ID,
			Code:      grant.Code,
			CompanyID: grant.CompanyID,
			Active:    grant.Active,
			CreatedAt: grant.CreatedAt.Unix(),
		}},
		"$set": bson.M{"updated_at": time.Now().UTC().Unix()},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return fmt.Errorf("add grant: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	update := bson.M{"$set": bson.M{
		"password_hash": passwordHash,
		"updated_at":    time.Now().UTC().Unix(),
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) RecordLogin(ctx context.Context, userID, ip string, at time.Time) error {
	update := bson.M{"$set": bson.M{
		"last_login_at": at.Unix(),
		"last_login_ip": ip,
	}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"_id": userID}, update); err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	return nil
}

func (r *UserRepository) MarkEmailVerified(ctx context.Context, userID string) error {
	update := bson.M{"$set": bson.M{
		"email_verified": true,
		"updated_at":     time.Now().UTC().Unix(),
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return fromMongoUser(&mu), nil
}

func toMongoUser(u *domain.User) mongoUser {
	mu := mongoUser{
		ID:            u.ID,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Status:        u.Status,
		EmailVerified: u.EmailVerified,
		LastLoginIP:   u.LastLoginIP,
		CreatedAt:     u.CreatedAt.Unix(),
		UpdatedAt:     u.UpdatedAt.Unix(),
	}
	if u.LastLoginAt != nil {
		ts := u.LastLoginAt.Unix()
		mu.LastLoginAt = &ts
	}
	for _, g := range u.Grants {
		mu.Grants = append(mu.Grants, mongoGrant{
			ID:        g.ID,
			Code:      g.Code,
			CompanyID: g.CompanyID,
			Active:    g.Active,
			CreatedAt: g.CreatedAt.Unix(),
		})
	}
	return mu
}

func fromMongoUser(mu *mongoUser) *domain.User {
	u := &domain.User{
		ID:            mu.ID,
		Email:         mu.Email,
		PasswordHash:  mu.PasswordHash,
		FirstName:     mu.FirstName,
		LastName:      mu.LastName,
		Status:        mu.Status,
		EmailVerified: mu.EmailVerified,
		LastLoginIP:   mu.LastLoginIP,
		CreatedAt:     unixToTime(mu.CreatedAt),
		UpdatedAt:     unixToTime(mu.UpdatedAt),
	}
	if mu.LastLoginAt != nil {
		ts := unixToTime(*mu.LastLoginAt)
		u.LastLoginAt = &ts
	}
	for _, g := range mu.Grants {
		u.Grants = append(u.Grants, domain.Grant{
			ID:        g.ID,
			Code:      g.Code,
			CompanyID: g.CompanyID,
			Active:    g.Active,
			CreatedAt: unixToTime(g.CreatedAt),
		})
	}
	return u
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
