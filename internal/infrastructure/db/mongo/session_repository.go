package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vettrack/auth-service/internal/core/domain"
)

const sessionCollection = "sessions"

// MongoSessionRepository persists sessions keyed by token lookup hash.
type MongoSessionRepository struct {
	coll *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *MongoSessionRepository {
	return &MongoSessionRepository{coll: db.Collection(sessionCollection)}
}

type mongoSession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id"`
	TokenHash string             `bson:"token_hash"`
	CreatedAt time.Time          `bson:"created_at"`
	ExpiresAt time.Time          `bson:"expires_at"`
	RevokedAt *time.Time         `bson:"revoked_at,omitempty"`
	UserAgent *string            `bson:"user_agent,omitempty"`
	IPAddress *string            `bson:"ip_address,omitempty"`
}

// validSession carries the joined owner out of the FindValid aggregation.
type validSession struct {
	mongoSession `bson:",inline"`
	Owner        []mongoUser `bson:"owner"`
}

func (ms *mongoSession) toDomain() *domain.Session {
	return &domain.Session{
		ID:        ms.ID.Hex(),
		UserID:    ms.UserID.Hex(),
		TokenHash: ms.TokenHash,
		CreatedAt: ms.CreatedAt,
		ExpiresAt: ms.ExpiresAt,
		RevokedAt: ms.RevokedAt,
		UserAgent: ms.UserAgent,
		IPAddress: ms.IPAddress,
	}
}

func (r *MongoSessionRepository) Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time, userAgent, ipAddress *string) (*domain.Session, error) {
	ownerID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, fmt.Errorf("create session: bad user id %q: %w", userID, err)
	}

	doc := mongoSession{
		ID:        primitive.NewObjectID(),
		UserID:    ownerID,
		TokenHash: tokenHash,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return doc.toDomain(), nil
}

// FindValid resolves a lookup hash to its session and owning user in a
// single aggregation: the session must be unrevoked and unexpired, and the
// owner active. A session whose owner is deactivated reads as not found; a
// session whose owner record is missing is returned with a nil user so the
// engine can flag the inconsistency.
func (r *MongoSessionRepository) FindValid(ctx context.Context, tokenHash string) (*domain.Session, *domain.User, error) {
	now := time.Now().UTC()
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"token_hash": tokenHash,
			"revoked_at": nil,
			"expires_at": bson.M{"$gt": now},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         userCollection,
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "owner",
		}}},
		{{Key: "$limit", Value: 1}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, nil, fmt.Errorf("find valid session: %w", err)
	}
	defer cursor.Close(ctx)

	var results []validSession
	if err := cursor.All(ctx, &results); err != nil {
		return nil, nil, fmt.Errorf("decode valid session: %w", err)
	}
	if len(results) == 0 {
		return nil, nil, domain.ErrSessionNotFound
	}

	vs := results[0]
	if len(vs.Owner) == 0 {
		return vs.mongoSession.toDomain(), nil, nil
	}
	owner := vs.Owner[0]
	if !owner.Status {
		return nil, nil, domain.ErrSessionNotFound
	}
	return vs.mongoSession.toDomain(), owner.toDomain(), nil
}

// Revoke marks the session revoked. Matching on a nil revoked_at makes the
// call lose cleanly if another request revoked the session first.
func (r *MongoSessionRepository) Revoke(ctx context.Context, session *domain.Session) error {
	oid, err := primitive.ObjectIDFromHex(session.ID)
	if err != nil {
		return domain.ErrSessionNotFound
	}

	now := time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "revoked_at": nil},
		bson.M{"$set": bson.M{"revoked_at": now}},
	)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if res.ModifiedCount == 0 {
		return domain.ErrSessionNotFound
	}
	session.RevokedAt = &now
	return nil
}

// RevokeAllForUser revokes every live session the user owns and returns the
// count, reported for observability only.
func (r *MongoSessionRepository) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	ownerID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return 0, fmt.Errorf("revoke all sessions: bad user id %q: %w", userID, err)
	}

	now := time.Now().UTC()
	res, err := r.coll.UpdateMany(ctx,
		bson.M{
			"user_id":    ownerID,
			"revoked_at": nil,
			"expires_at": bson.M{"$gt": now},
		},
		bson.M{"$set": bson.M{"revoked_at": now}},
	)
	if err != nil {
		return 0, fmt.Errorf("revoke all sessions: %w", err)
	}
	return res.ModifiedCount, nil
}

func userEmailIndex() mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
}

func sessionIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "token_hash", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "revoked_at", Value: 1}}},
	}
}
