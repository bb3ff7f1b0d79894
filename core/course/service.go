package course

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/elimu-project/elimu/core"
	"github.com/elimu-project/elimu/core/lms"
)

type Service struct {
	repo     Repository
	catalogs map[string]Catalog
	logger   core.Logger
}

func NewService(repo Repository, moodle, openEdx Catalog, logger core.Logger) *Service {
	return &Service{
		repo: repo,
		catalogs: map[string]Catalog{
			string(lms.PlatformMoodle):  moodle,
			string(lms.PlatformOpenEdx): openEdx,
		},
		logger: logger,
	}
}

// SyncCourses pulls the course list from every platform and merges it into
// the unified catalog. A platform that cannot be reached contributes nothing
// to this run; a course that cannot be persisted is counted failed and the
// run continues.
func (svc *Service) SyncCourses(ctx context.Context) (SyncReport, error) {
	var report SyncReport
	for _, source := range Sources {
		courses, err := svc.catalogs[source].ListCourses(ctx)
		if err != nil {
			svc.logger.Error(fmt.Sprintf("fetching %s courses: %v", source, err), err)
			continue
		}
		svc.ingest(courses, &report)
	}
	svc.logger.Info(fmt.Sprintf("course synchronization completed: %d added, %d updated, %d failed",
		report.Added, report.Updated, report.Failed))
	return report, nil
}

func (svc *Service) ingest(courses []Course, report *SyncReport) {
	for _, c := range courses {
		existing, err := svc.repo.GetCourseBySource(c.Source, c.OriginalID)
		switch err {
		case nil:
			c.ID = existing.ID
			c.UpdatedAt = time.Now().UTC()
			if err := svc.repo.UpdateCourseDetails(c); err != nil {
				svc.logger.Error(fmt.Sprintf("updating course %q: %v", c.Title, err), err)
				report.Failed++
				continue
			}
			report.Updated++
		case ErrNotFound:
			now := time.Now().UTC()
			if c.Language == "" {
				c.Language = "en"
			}
			c.CurriculumTags = MapCurriculumTags(c)
			c.DownloadCount = 0
			c.CreatedAt = now
			c.UpdatedAt = now
			if _, err := svc.repo.CreateCourse(c); err != nil {
				svc.logger.Error(fmt.Sprintf("adding course %q: %v", c.Title, err), err)
				report.Failed++
				continue
			}
			report.Added++
		default:
			svc.logger.Error(fmt.Sprintf("looking up course %q: %v", c.Title, err), err)
			report.Failed++
		}
	}
}

func (svc *Service) Filter(filter QueryFilter) ([]Course, error) {
	return svc.repo.FilterCourses(filter)
}

// MapCurriculumTags derives curriculum tags from course attributes.
// Secondary-level courses map onto the WAEC/NECO exam bodies when the title
// names one, and fall back to the NERDC national curriculum.
func MapCurriculumTags(c Course) []string {
	if c.Level != "secondary" {
		return nil
	}

	var tags []string
	title := strings.ToLower(c.Title)
	if strings.Contains(title, "waec") {
		tags = append(tags, "WAEC")
	}
	if strings.Contains(title, "neco") {
		tags = append(tags, "NECO")
	}
	if len(tags) == 0 {
		tags = append(tags, "NERDC")
	}
	return tags
}
