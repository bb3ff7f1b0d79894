package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/elimu-project/elimu/core"
	"github.com/elimu-project/elimu/core/lms"
)

var ErrNotFound = errors.New("course not found")

// Course is one entry of the unified catalog, merged from the remote LMS
// platforms. A course is identified locally by its own id and remotely by
// the (source, original id) pair.
type Course struct {
	ID             string     `json:"id" bson:"_id,omitempty"`
	Source         string     `json:"source" bson:"source"` // moodle | openedx
	OriginalID     string     `json:"original_id" bson:"original_id"`
	Title          string     `json:"title" bson:"title"`
	ShortTitle     string     `json:"short_title" bson:"short_title"`
	Description    string     `json:"description" bson:"description"`
	Category       string     `json:"category" bson:"category"`
	Format         string     `json:"format" bson:"format"`
	Level          string     `json:"level,omitempty" bson:"level,omitempty"` // primary | secondary
	Language       string     `json:"language" bson:"language"`
	CurriculumTags []string   `json:"curriculum_tags" bson:"curriculum_tags"`
	StartDate      *time.Time `json:"start_date,omitempty" bson:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty" bson:"end_date,omitempty"`
	MediaURL       string     `json:"media_url,omitempty" bson:"media_url,omitempty"`
	DownloadCount  int        `json:"download_count" bson:"download_count"`
	CreatedAt      time.Time  `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt      time.Time  `json:"updated_at" bson:"updated_at"` // UTC
}

// Catalog lists the courses one remote LMS currently offers. Implementations
// return courses with Source and OriginalID set.
type Catalog interface {
	ListCourses(ctx context.Context) ([]Course, error)
}

// Repository persists the unified catalog.
type Repository interface {
	GetCourseBySource(source, originalID string) (Course, error)
	CreateCourse(c Course) (Course, error)
	// UpdateCourseDetails overwrites the remote-owned fields of an existing
	// course; local fields (language, tags, download count) are untouched.
	UpdateCourseDetails(c Course) error
	FilterCourses(filter QueryFilter) ([]Course, error)
}

// SyncReport counts the outcome of one catalog synchronization run.
type SyncReport struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

type QueryFilter struct {
	Source   string `query:"source"`
	Category string `query:"category"`
	Search   string `query:"search"`
	Page     int    `query:"page"`
	Limit    int    `query:"limit"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Source = core.CleanString(qf.Source, true /* lower */)
	if qf.Page < 1 {
		qf.Page = 1
	}
	if qf.Limit < 1 || qf.Limit > 100 {
		qf.Limit = 20
	}
}

// Sources lists the catalog origins in sync order.
var Sources = []string{string(lms.PlatformMoodle), string(lms.PlatformOpenEdx)}
