package repository

import (
	"context"
	"fmt"
	"slotgate/pkg/config"
	"slotgate/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const PromptsCollectionName = "Approval_prompts"

// PromptRepository is the ledger of outstanding approval prompts. Rows for a
// booking exist from intake completion until the first decision lands, at
// which point they are read back for retraction and cleared together.
type PromptRepository interface {
	Record(ctx context.Context, prompts []model.ApprovalPrompt) error
	FindByBooking(ctx context.Context, bookingID int64) ([]*model.ApprovalPrompt, error)
	DeleteByBooking(ctx context.Context, bookingID int64) error
}

type mongoPromptRepository struct {
	collection *mongo.Collection
}

func NewPromptRepository(cfg *config.Config) PromptRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPromptRepository{
		collection: db.Collection(PromptsCollectionName),
	}
}

func (r *mongoPromptRepository) Record(ctx context.Context, prompts []model.ApprovalPrompt) error {
	if len(prompts) == 0 {
		return nil
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	docs := make([]any, 0, len(prompts))
	for i := range prompts {
		prompts[i].CreatedAt = now
		docs = append(docs, prompts[i])
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to record approval prompts: %w", err)
	}
	return nil
}

func (r *mongoPromptRepository) FindByBooking(ctx context.Context, bookingID int64) ([]*model.ApprovalPrompt, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"booking_id": bookingID})
	if err != nil {
		return nil, fmt.Errorf("failed to find prompts for booking [%d]: %w", bookingID, err)
	}
	defer cursor.Close(ctx)

	var prompts []*model.ApprovalPrompt
	if err = cursor.All(ctx, &prompts); err != nil {
		return nil, fmt.Errorf("failed to decode prompts: %w", err)
	}
	return prompts, nil
}

func (r *mongoPromptRepository) DeleteByBooking(ctx context.Context, bookingID int64) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"booking_id": bookingID}); err != nil {
		return fmt.Errorf("failed to delete prompts for booking [%d]: %w", bookingID, err)
	}
	return nil
}
