package dummydb

import (
	"time"

	"github.com/elimu-project/elimu/core/analytics"
)

type analyticsRepository struct {
	db *analyticsTables
}

var _ analytics.Repository = (*analyticsRepository)(nil) // interface compliance check

func NewAnalyticsRepository(db *DB) analytics.Repository {
	return &analyticsRepository{db: db.analytics}
}

func (repo *analyticsRepository) CreateAttendance(att analytics.UserAttendance) (analytics.UserAttendance, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	att.ID = nextID()
	repo.db.attendance = append(repo.db.attendance, &att)
	return att, nil
}

func (repo *analyticsRepository) GetLatestOpenAttendance(userID string) (analytics.UserAttendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	// rows are appended in login order; scan backwards for the latest
	for i := len(repo.db.attendance) - 1; i >= 0; i-- {
		att := repo.db.attendance[i]
		if att.UserID == userID && att.LogoutTimestamp == nil {
			return *att, nil
		}
	}
	return analytics.UserAttendance{}, analytics.ErrNoOpenSession
}

func (repo *analyticsRepository) CloseLatestAttendance(userID string, logout time.Time, durationMin int) (analytics.UserAttendance, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for i := len(repo.db.attendance) - 1; i >= 0; i-- {
		att := repo.db.attendance[i]
		if att.UserID == userID && att.LogoutTimestamp == nil {
			att.LogoutTimestamp = &logout
			att.SessionDuration = durationMin
			return *att, nil
		}
	}
	return analytics.UserAttendance{}, analytics.ErrNoOpenSession
}

func (repo *analyticsRepository) CreateOutcome(out analytics.LearningOutcome) (analytics.LearningOutcome, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	out.ID = nextID()
	repo.db.outcomes = append(repo.db.outcomes, &out)
	return out, nil
}

func (repo *analyticsRepository) OutcomesByUser(userID string) ([]analytics.LearningOutcome, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var outs []analytics.LearningOutcome
	for _, out := range repo.db.outcomes {
		if out.UserID == userID {
			outs = append(outs, *out)
		}
	}
	return outs, nil
}

func (repo *analyticsRepository) BumpEngagement(contentID string, day time.Time, views, downloads, completions int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, eng := range repo.db.engagements {
		if eng.ContentID == contentID && eng.Date.Equal(day) {
			eng.Views += views
			eng.Downloads += downloads
			eng.Completions += completions
			return nil
		}
	}
	repo.db.engagements = append(repo.db.engagements, &analytics.ContentEngagement{
		ID:          nextID(),
		ContentID:   contentID,
		Date:        day,
		Views:       views,
		Downloads:   downloads,
		Completions: completions,
	})
	return nil
}

func (repo *analyticsRepository) EngagementForContent(contentID string) ([]analytics.ContentEngagement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var engs []analytics.ContentEngagement
	for _, eng := range repo.db.engagements {
		if eng.ContentID == contentID {
			engs = append(engs, *eng)
		}
	}
	return engs, nil
}
