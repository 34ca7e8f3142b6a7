package repository

import (
	"context"
	"errors"
	"fmt"
	intakeerrors "slotgate/internal/intake/errors"
	"slotgate/pkg/config"
	"slotgate/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const SessionsCollectionName = "Intake_sessions"

// SessionRepository stores in-progress intake dialogues, one per requester.
// The requester id is the document key, so starting over replaces the old
// dialogue and concurrent inputs from one requester act on one session.
type SessionRepository interface {
	Put(ctx context.Context, session *model.IntakeSession) error
	Find(ctx context.Context, requesterID string) (*model.IntakeSession, error)
	Delete(ctx context.Context, requesterID string) error
}

type mongoSessionRepository struct {
	collection *mongo.Collection
}

func NewSessionRepository(cfg *config.Config) SessionRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSessionRepository{
		collection: db.Collection(SessionsCollectionName),
	}
}

func (r *mongoSessionRepository) Put(ctx context.Context, session *model.IntakeSession) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": session.RequesterID}, session, opts)
	if err != nil {
		return fmt.Errorf("failed to store intake session for requester [%s]: %w", session.RequesterID, err)
	}
	return nil
}

func (r *mongoSessionRepository) Find(ctx context.Context, requesterID string) (*model.IntakeSession, error) {
	var session model.IntakeSession
	err := r.collection.FindOne(ctx, bson.M{"_id": requesterID}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, intakeerrors.ErrNoSession
		}
		return nil, fmt.Errorf("failed to find intake session for requester [%s]: %w", requesterID, err)
	}
	return &session, nil
}

func (r *mongoSessionRepository) Delete(ctx context.Context, requesterID string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": requesterID}); err != nil {
		return fmt.Errorf("failed to delete intake session for requester [%s]: %w", requesterID, err)
	}
	return nil
}
