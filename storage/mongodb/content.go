package mongodb

import (
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/elimu-project/elimu/core/content"
)

type contentRepository struct {
	col *mongo.Collection
}

var _ content.Repository = (*contentRepository)(nil)

func NewContentRepository(db *mongo.Database) content.Repository {
	return &contentRepository{col: db.Collection(colContent)}
}

func (repo *contentRepository) CreateContent(c content.Content) (content.Content, error) {
	c.ID = primitive.NewObjectID().Hex()
	if c.Votes.Voters == nil {
		c.Votes.Voters = []content.Voter{}
	}

	ctx, cancel := opCtx()
	defer cancel()

	if _, err := repo.col.InsertOne(ctx, c); err != nil {
		return content.Content{}, errors.Wrap(err, "inserting content")
	}
	return c, nil
}

func (repo *contentRepository) GetContentByID(id string) (content.Content, error) {
	ctx, cancel := opCtx()
	defer cancel()

	var c content.Content
	err := repo.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return content.Content{}, content.ErrNotFound
	}
	if err != nil {
		return content.Content{}, errors.Wrap(err, "finding content")
	}
	return c, nil
}

func (repo *contentRepository) FilterContent(filter content.QueryFilter) ([]content.Content, error) {
	query := bson.M{}
	if filter.Subject != "" {
		query["subject"] = filter.Subject
	}
	if filter.GradeLevel != "" {
		query["grade_level"] = filter.GradeLevel
	}
	if filter.ContentType != "" {
		query["content_type"] = filter.ContentType
	}
	if filter.Format != "" {
		query["format"] = filter.Format
	}
	if filter.Language != "" {
		query["language"] = filter.Language
	}
	if filter.CreatorID != "" {
		query["creator_id"] = filter.CreatorID
	}
	if filter.Approved != nil {
		query["approved"] = *filter.Approved
	}
	if filter.Search != "" {
		query["$or"] = bson.A{
			bson.M{"title": primitive.Regex{Pattern: filter.Search, Options: "i"}},
			bson.M{"description": primitive.Regex{Pattern: filter.Search, Options: "i"}},
		}
	}

	opts := options.Find().
		SetSort(sortOption(filter.Sort)).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	ctx, cancel := opCtx()
	defer cancel()

	cur, err := repo.col.Find(ctx, query, opts)
	if err != nil {
		return nil, errors.Wrap(err, "filtering content")
	}
	var contents []content.Content
	if err := cur.All(ctx, &contents); err != nil {
		return nil, errors.Wrap(err, "decoding content list")
	}
	return contents, nil
}

func sortOption(sort string) bson.D {
	switch sort {
	case "popular":
		return bson.D{{Key: "views", Value: -1}}
	case "most_downloaded":
		return bson.D{{Key: "downloads", Value: -1}}
	case "highest_rated":
		return bson.D{{Key: "votes.upvotes", Value: -1}}
	default: // newest
		return bson.D{{Key: "created_at", Value: -1}}
	}
}

func (repo *contentRepository) UpdateContent(c content.Content) (content.Content, error) {
	ctx, cancel := opCtx()
	defer cancel()

	res, err := repo.col.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return content.Content{}, errors.Wrap(err, "updating content")
	}
	if res.MatchedCount == 0 {
		return content.Content{}, content.ErrNotFound
	}
	return c, nil
}

func (repo *contentRepository) DeleteContent(id string) error {
	ctx, cancel := opCtx()
	defer cancel()

	res, err := repo.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "deleting content")
	}
	if res.DeletedCount == 0 {
		return content.ErrNotFound
	}
	return nil
}

func (repo *contentRepository) IncrementViews(id string) error {
	return repo.increment(id, "views")
}

func (repo *contentRepository) IncrementDownloads(id string) error {
	return repo.increment(id, "downloads")
}

func (repo *contentRepository) increment(id, field string) error {
	ctx, cancel := opCtx()
	defer cancel()

	res, err := repo.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{field: 1}})
	if err != nil {
		return errors.Wrapf(err, "incrementing %s", field)
	}
	if res.MatchedCount == 0 {
		return content.ErrNotFound
	}
	return nil
}
