package analytics

import (
	"time"

	"github.com/pkg/errors"
)

var ErrNoOpenSession = errors.New("no open session for user")

type (
	Repository interface {
		CreateAttendance(att UserAttendance) (UserAttendance, error)
		// CloseLatestAttendance stamps the logout time on the user's most
		// recent open session and returns it; ErrNoOpenSession when none.
		CloseLatestAttendance(userID string, logout time.Time, durationMin int) (UserAttendance, error)
		GetLatestOpenAttendance(userID string) (UserAttendance, error)
		CreateOutcome(out LearningOutcome) (LearningOutcome, error)
		OutcomesByUser(userID string) ([]LearningOutcome, error)
		BumpEngagement(contentID string, day time.Time, views, downloads, completions int) error
		EngagementForContent(contentID string) ([]ContentEngagement, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) TrackLogin(userID, ip string, device DeviceInfo) (UserAttendance, error) {
	att := UserAttendance{
		UserID:         userID,
		LoginTimestamp: time.Now().UTC(),
		IPAddress:      ip,
		DeviceInfo:     device,
	}
	return svc.repo.CreateAttendance(att)
}

func (svc *Service) RecordLogout(userID string) (UserAttendance, error) {
	open, err := svc.repo.GetLatestOpenAttendance(userID)
	if err != nil {
		return UserAttendance{}, err
	}
	now := time.Now().UTC()
	duration := int(now.Sub(open.LoginTimestamp).Minutes())
	return svc.repo.CloseLatestAttendance(userID, now, duration)
}

func (svc *Service) RecordOutcome(out LearningOutcome) (LearningOutcome, error) {
	if out.ActivityDate.IsZero() {
		out.ActivityDate = time.Now().UTC()
	}
	return svc.repo.CreateOutcome(out)
}

func (svc *Service) OutcomesByUser(userID string) ([]LearningOutcome, error) {
	return svc.repo.OutcomesByUser(userID)
}

func (svc *Service) EngagementForContent(contentID string) ([]ContentEngagement, error) {
	return svc.repo.EngagementForContent(contentID)
}
