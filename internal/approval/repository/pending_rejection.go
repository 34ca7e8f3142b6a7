package repository

import (
	"context"
	"errors"
	"fmt"
	approvalerrors "slotgate/internal/approval/errors"
	"slotgate/pkg/config"
	"slotgate/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const PendingRejectionsCollectionName = "Pending_rejections"

// PendingRejectionRepository holds at most one awaiting-reason entry per
// approver. Put overwrites any previous entry for the same approver
// (last-write-wins); Take consumes the entry atomically so a reason can be
// applied at most once.
type PendingRejectionRepository interface {
	Put(ctx context.Context, pending *model.PendingRejection) error
	Take(ctx context.Context, approverID string) (*model.PendingRejection, error)
	DeleteByBooking(ctx context.Context, bookingID int64) error
}

type mongoPendingRejectionRepository struct {
	collection *mongo.Collection
}

func NewPendingRejectionRepository(cfg *config.Config) PendingRejectionRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPendingRejectionRepository{
		collection: db.Collection(PendingRejectionsCollectionName),
	}
}

func (r *mongoPendingRejectionRepository) Put(ctx context.Context, pending *model.PendingRejection) error {
	pending.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": pending.ApproverID}, pending, opts)
	if err != nil {
		return fmt.Errorf("failed to record pending rejection for approver [%s]: %w", pending.ApproverID, err)
	}
	return nil
}

func (r *mongoPendingRejectionRepository) Take(ctx context.Context, approverID string) (*model.PendingRejection, error) {
	var pending model.PendingRejection
	err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": approverID}).Decode(&pending)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, approvalerrors.ErrNoPendingReason
		}
		return nil, fmt.Errorf("failed to take pending rejection for approver [%s]: %w", approverID, err)
	}
	return &pending, nil
}

func (r *mongoPendingRejectionRepository) DeleteByBooking(ctx context.Context, bookingID int64) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"booking_id": bookingID}); err != nil {
		return fmt.Errorf("failed to delete pending rejections for booking [%d]: %w", bookingID, err)
	}
	return nil
}
