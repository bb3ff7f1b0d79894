package mongodb

import (
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/elimu-project/elimu/core/activity"
)

type activityRepository struct {
	col *mongo.Collection
}

var _ activity.Repository = (*activityRepository)(nil)

func NewActivityRepository(db *mongo.Database) activity.Repository {
	return &activityRepository{col: db.Collection(colActivities)}
}

func (repo *activityRepository) CreateActivity(act activity.OfflineActivity) (activity.OfflineActivity, error) {
	act.ID = primitive.NewObjectID().Hex()

	ctx, cancel := opCtx()
	defer cancel()

	if _, err := repo.col.InsertOne(ctx, act); err != nil {
		return activity.OfflineActivity{}, errors.Wrap(err, "inserting activity")
	}
	return act, nil
}

func (repo *activityRepository) PendingActivitiesByUser(userID string) ([]activity.OfflineActivity, error) {
	return repo.find(bson.M{"user_id": userID, "sync_status": activity.StatusPending})
}

func (repo *activityRepository) ActivitiesByUser(userID string) ([]activity.OfflineActivity, error) {
	return repo.find(bson.M{"user_id": userID})
}

func (repo *activityRepository) find(query bson.M) ([]activity.OfflineActivity, error) {
	ctx, cancel := opCtx()
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := repo.col.Find(ctx, query, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying activities")
	}
	var acts []activity.OfflineActivity
	if err := cur.All(ctx, &acts); err != nil {
		return nil, errors.Wrap(err, "decoding activity list")
	}
	return acts, nil
}

func (repo *activityRepository) SetActivityStatus(id string, status activity.Status, syncedAt *time.Time) error {
	set := bson.M{"sync_status": status}
	if syncedAt != nil {
		set["synced_at"] = *syncedAt
	}

	ctx, cancel := opCtx()
	defer cancel()

	res, err := repo.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return errors.Wrap(err, "setting activity status")
	}
	if res.MatchedCount == 0 {
		return activity.ErrNotFound
	}
	return nil
}
