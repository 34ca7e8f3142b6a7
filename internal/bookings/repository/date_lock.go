package repository

import (
	"context"
	bookingserrors "slotgate/internal/bookings/errors"
	"slotgate/pkg/config"
	"slotgate/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const lockTTL = 30 * time.Second

// DateLockRepository provides advisory per-date locks. Approvals for the
// same date acquire the lock before counting capacity, so two concurrent
// approvals cannot both see a free slot.
type DateLockRepository interface {
	Acquire(ctx context.Context, date string) error
	Release(ctx context.Context, date string) error
}

type mongoDateLockRepository struct {
	collection *mongo.Collection
}

func NewDateLockRepository(cfg *config.Config) DateLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoDateLockRepository{
		collection: db.Collection("Date_locks"),
	}
}

// Acquire inserts a lock document keyed by the date. The unique _id makes
// the insert fail for a held lock. Expired leftovers from crashed holders
// are cleared and the insert retried once.
func (r *mongoDateLockRepository) Acquire(ctx context.Context, date string) error {
	now := time.Now().UTC()
	lock := &model.DateLock{
		ID:        date,
		ExpiresAt: now.Add(lockTTL),
		CreatedAt: now,
	}

	_, err := r.collection.InsertOne(ctx, lock)
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}

	result, delErr := r.collection.DeleteOne(ctx, bson.M{
		"_id":        date,
		"expires_at": bson.M{"$lt": now},
	})
	if delErr != nil || result.DeletedCount == 0 {
		return bookingserrors.ErrDayLocked
	}

	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrDayLocked
		}
		return err
	}
	return nil
}

func (r *mongoDateLockRepository) Release(ctx context.Context, date string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": date})
	return err
}
