package dummydb

import (
	"sort"
	"strings"

	"github.com/elimu-project/elimu/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

func (repo *courseRepository) GetCourseBySource(source, originalID string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, c := range repo.db.table {
		if c.Source == source && c.OriginalID == originalID {
			return *c, nil
		}
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) CreateCourse(c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	c.ID = nextID()
	if c.CurriculumTags == nil {
		c.CurriculumTags = []string{}
	}
	repo.db.table[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) UpdateCourseDetails(c course.Course) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[c.ID]
	if !ok {
		return course.ErrNotFound
	}
	orig.Title = c.Title
	orig.ShortTitle = c.ShortTitle
	orig.Description = c.Description
	orig.Category = c.Category
	orig.Format = c.Format
	orig.StartDate = c.StartDate
	orig.EndDate = c.EndDate
	orig.MediaURL = c.MediaURL
	orig.UpdatedAt = c.UpdatedAt
	return nil
}

func (repo *courseRepository) FilterCourses(filter course.QueryFilter) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var filtered []course.Course
	for _, c := range repo.db.table {
		if filter.Source != "" && c.Source != filter.Source {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(c.Category, filter.Category) {
			continue
		}
		if filter.Search != "" {
			kw := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(c.Title), kw) &&
				!strings.Contains(strings.ToLower(c.ShortTitle), kw) &&
				!strings.Contains(strings.ToLower(c.Description), kw) {
				continue
			}
		}
		filtered = append(filtered, *c)
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Title < filtered[j].Title })

	start := (filter.Page - 1) * filter.Limit
	if start >= len(filtered) {
		return nil, nil
	}
	end := start + filter.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], nil
}
