package dummydb

import (
	"sort"
	"strings"

	"github.com/elimu-project/elimu/core/content"
)

type contentRepository struct {
	db *contentTable
}

var _ content.Repository = (*contentRepository)(nil) // interface compliance check

func NewContentRepository(db *DB) content.Repository {
	return &contentRepository{db: db.content}
}

func (repo *contentRepository) query() []content.Content {
	contents := make([]content.Content, 0, len(repo.db.table))
	for _, c := range repo.db.table {
		contents = append(contents, *c)
	}
	sort.Slice(contents, func(i, j int) bool { return contents[i].ID < contents[j].ID })
	return contents
}

func (repo *contentRepository) CreateContent(c content.Content) (content.Content, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	c.ID = nextID()
	if c.Votes.Voters == nil {
		c.Votes.Voters = []content.Voter{}
	}
	repo.db.table[c.ID] = &c
	return c, nil
}

func (repo *contentRepository) GetContentByID(id string) (content.Content, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.table[id]; ok {
		return *c, nil
	}
	return content.Content{}, content.ErrNotFound
}

func (repo *contentRepository) FilterContent(filter content.QueryFilter) ([]content.Content, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	contents := repo.query()

	match := func(c content.Content) bool {
		if filter.Subject != "" && !strings.EqualFold(c.Subject, filter.Subject) {
			return false
		}
		if filter.GradeLevel != "" && !strings.EqualFold(c.GradeLevel, filter.GradeLevel) {
			return false
		}
		if filter.ContentType != "" && !strings.EqualFold(c.ContentType, filter.ContentType) {
			return false
		}
		if filter.Format != "" && !strings.EqualFold(c.Format, filter.Format) {
			return false
		}
		if filter.Language != "" && !strings.EqualFold(c.Language, filter.Language) {
			return false
		}
		if filter.CreatorID != "" && c.CreatorID != filter.CreatorID {
			return false
		}
		if filter.Approved != nil && c.Approved != *filter.Approved {
			return false
		}
		if filter.Search != "" {
			kw := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(c.Title), kw) &&
				!strings.Contains(strings.ToLower(c.Description), kw) {
				return false
			}
		}
		return true
	}

	var filtered []content.Content
	for _, c := range contents {
		if match(c) {
			filtered = append(filtered, c)
		}
	}

	switch filter.Sort {
	case "popular":
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Views > filtered[j].Views
		})
	case "most_downloaded":
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Downloads > filtered[j].Downloads
		})
	case "highest_rated":
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Votes.Upvotes > filtered[j].Votes.Upvotes
		})
	default: // newest
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
		})
	}

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

func (repo *contentRepository) UpdateContent(c content.Content) (content.Content, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[c.ID]; !ok {
		return content.Content{}, content.ErrNotFound
	}
	repo.db.table[c.ID] = &c
	return c, nil
}

func (repo *contentRepository) DeleteContent(id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return content.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *contentRepository) IncrementViews(id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	c, ok := repo.db.table[id]
	if !ok {
		return content.ErrNotFound
	}
	c.Views++
	return nil
}

func (repo *contentRepository) IncrementDownloads(id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	c, ok := repo.db.table[id]
	if !ok {
		return content.ErrNotFound
	}
	c.Downloads++
	return nil
}
