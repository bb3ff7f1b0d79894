package mongodb

import (
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/elimu-project/elimu/core/course"
)

type courseRepository struct {
	col *mongo.Collection
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *mongo.Database) course.Repository {
	return &courseRepository{col: db.Collection(colCourses)}
}

func (repo *courseRepository) GetCourseBySource(source, originalID string) (course.Course, error) {
	ctx, cancel := opCtx()
	defer cancel()

	var c course.Course
	err := repo.col.FindOne(ctx, bson.M{"source": source, "original_id": originalID}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return course.Course{}, course.ErrNotFound
	}
	if err != nil {
		return course.Course{}, errors.Wrap(err, "finding course")
	}
	return c, nil
}

func (repo *courseRepository) CreateCourse(c course.Course) (course.Course, error) {
	c.ID = primitive.NewObjectID().Hex()
	if c.CurriculumTags == nil {
		c.CurriculumTags = []string{}
	}

	ctx, cancel := opCtx()
	defer cancel()

	if _, err := repo.col.InsertOne(ctx, c); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (repo *courseRepository) UpdateCourseDetails(c course.Course) error {
	ctx, cancel := opCtx()
	defer cancel()

	// remote-owned fields only; language, tags and counters stay local
	res, err := repo.col.UpdateOne(ctx, bson.M{"_id": c.ID}, bson.M{"$set": bson.M{
		"title":       c.Title,
		"short_title": c.ShortTitle,
		"description": c.Description,
		"category":    c.Category,
		"format":      c.Format,
		"start_date":  c.StartDate,
		"end_date":    c.EndDate,
		"media_url":   c.MediaURL,
		"updated_at":  c.UpdatedAt,
	}})
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	if res.MatchedCount == 0 {
		return course.ErrNotFound
	}
	return nil
}

func (repo *courseRepository) FilterCourses(filter course.QueryFilter) ([]course.Course, error) {
	query := bson.M{}
	if filter.Source != "" {
		query["source"] = filter.Source
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Search != "" {
		query["$or"] = bson.A{
			bson.M{"title": primitive.Regex{Pattern: filter.Search, Options: "i"}},
			bson.M{"short_title": primitive.Regex{Pattern: filter.Search, Options: "i"}},
			bson.M{"description": primitive.Regex{Pattern: filter.Search, Options: "i"}},
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "title", Value: 1}}).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	ctx, cancel := opCtx()
	defer cancel()

	cur, err := repo.col.Find(ctx, query, opts)
	if err != nil {
		return nil, errors.Wrap(err, "filtering courses")
	}
	var courses []course.Course
	if err := cur.All(ctx, &courses); err != nil {
		return nil, errors.Wrap(err, "decoding course list")
	}
	return courses, nil
}
