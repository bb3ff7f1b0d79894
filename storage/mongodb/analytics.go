package mongodb

import (
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/elimu-project/elimu/core/analytics"
)

type analyticsRepository struct {
	attendance  *mongo.Collection
	outcomes    *mongo.Collection
	engagements *mongo.Collection
}

var _ analytics.Repository = (*analyticsRepository)(nil)

func NewAnalyticsRepository(db *mongo.Database) analytics.Repository {
	return &analyticsRepository{
		attendance:  db.Collection(colAttendance),
		outcomes:    db.Collection(colOutcomes),
		engagements: db.Collection(colEngagements),
	}
}

func (repo *analyticsRepository) CreateAttendance(att analytics.UserAttendance) (analytics.UserAttendance, error) {
	att.ID = primitive.NewObjectID().Hex()

	ctx, cancel := opCtx()
	defer cancel()

	if _, err := repo.attendance.InsertOne(ctx, att); err != nil {
		return analytics.UserAttendance{}, errors.Wrap(err, "inserting attendance")
	}
	return att, nil
}

func (repo *analyticsRepository) GetLatestOpenAttendance(userID string) (analytics.UserAttendance, error) {
	ctx, cancel := opCtx()
	defer cancel()

	query := bson.M{"user_id": userID, "logout_timestamp": nil}
	opts := options.FindOne().SetSort(bson.D{{Key: "login_timestamp", Value: -1}})

	var att analytics.UserAttendance
	err := repo.attendance.FindOne(ctx, query, opts).Decode(&att)
	if err == mongo.ErrNoDocuments {
		return analytics.UserAttendance{}, analytics.ErrNoOpenSession
	}
	if err != nil {
		return analytics.UserAttendance{}, errors.Wrap(err, "finding open attendance")
	}
	return att, nil
}

func (repo *analyticsRepository) CloseLatestAttendance(userID string, logout time.Time, durationMin int) (analytics.UserAttendance, error) {
	open, err := repo.GetLatestOpenAttendance(userID)
	if err != nil {
		return analytics.UserAttendance{}, err
	}

	ctx, cancel := opCtx()
	defer cancel()

	update := bson.M{"$set": bson.M{
		"logout_timestamp": logout,
		"session_duration": durationMin,
	}}
	if _, err := repo.attendance.UpdateOne(ctx, bson.M{"_id": open.ID}, update); err != nil {
		return analytics.UserAttendance{}, errors.Wrap(err, "closing attendance")
	}
	open.LogoutTimestamp = &logout
	open.SessionDuration = durationMin
	return open, nil
}

func (repo *analyticsRepository) CreateOutcome(out analytics.LearningOutcome) (analytics.LearningOutcome, error) {
	out.ID = primitive.NewObjectID().Hex()

	ctx, cancel := opCtx()
	defer cancel()

	if _, err := repo.outcomes.InsertOne(ctx, out); err != nil {
		return analytics.LearningOutcome{}, errors.Wrap(err, "inserting outcome")
	}
	return out, nil
}

func (repo *analyticsRepository) OutcomesByUser(userID string) ([]analytics.LearningOutcome, error) {
	ctx, cancel := opCtx()
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "activity_date", Value: -1}})
	cur, err := repo.outcomes.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying outcomes")
	}
	var outs []analytics.LearningOutcome
	if err := cur.All(ctx, &outs); err != nil {
		return nil, errors.Wrap(err, "decoding outcome list")
	}
	return outs, nil
}

func (repo *analyticsRepository) BumpEngagement(contentID string, day time.Time, views, downloads, completions int) error {
	ctx, cancel := opCtx()
	defer cancel()

	query := bson.M{"content_id": contentID, "date": day}
	update := bson.M{
		"$inc": bson.M{
			"views":       views,
			"downloads":   downloads,
			"completions": completions,
		},
		// string ids throughout; keep upserted docs decodable
		"$setOnInsert": bson.M{"_id": primitive.NewObjectID().Hex()},
	}
	opts := options.Update().SetUpsert(true)

	_, err := repo.engagements.UpdateOne(ctx, query, update, opts)
	return errors.Wrap(err, "bumping engagement")
}

func (repo *analyticsRepository) EngagementForContent(contentID string) ([]analytics.ContentEngagement, error) {
	ctx, cancel := opCtx()
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cur, err := repo.engagements.Find(ctx, bson.M{"content_id": contentID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying engagement")
	}
	var engs []analytics.ContentEngagement
	if err := cur.All(ctx, &engs); err != nil {
		return nil, errors.Wrap(err, "decoding engagement list")
	}
	return engs, nil
}
