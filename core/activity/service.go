package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/elimu-project/elimu/core"
	"github.com/elimu-project/elimu/core/analytics"
	"github.com/elimu-project/elimu/core/user"
)

var (
	// errors
	ErrNotFound       = errors.New("activity not found")
	errNoQuizAnswers  = errors.New("no quiz answers provided")
	errUnknownType    = errors.New("unknown activity type")
	errMissingContent = errors.New("activity details missing content id")
)

type (
	Repository interface {
		CreateActivity(act OfflineActivity) (OfflineActivity, error)
		// PendingActivitiesByUser returns the user's pending activities in
		// arrival (insertion) order.
		PendingActivitiesByUser(userID string) ([]OfflineActivity, error)
		ActivitiesByUser(userID string) ([]OfflineActivity, error)
		SetActivityStatus(id string, status Status, syncedAt *time.Time) error
	}

	// ContentCounters bumps monotonic counters on content records.
	// Satisfied by content.Repository.
	ContentCounters interface {
		IncrementViews(id string) error
		IncrementDownloads(id string) error
	}

	// DownloadStore appends to a user's download history.
	// Satisfied by user.Repository.
	DownloadStore interface {
		AddDownloadRecord(userID string, rec user.DownloadRecord) error
	}

	// OutcomeRecorder persists scored learning outcomes and engagement
	// rollups. Satisfied by analytics.Repository.
	OutcomeRecorder interface {
		CreateOutcome(out analytics.LearningOutcome) (analytics.LearningOutcome, error)
		BumpEngagement(contentID string, day time.Time, views, downloads, completions int) error
	}

	// Scorer turns recorded quiz answers into a percentage in [0,100].
	// The scoring policy is external to the replay contract.
	Scorer interface {
		Score(answers []QuizAnswer) (score, maxScore int, percentage float64)
	}

	Service struct {
		repo     Repository
		contents ContentCounters
		users    DownloadStore
		outcomes OutcomeRecorder
		scorer   Scorer
		logger   core.Logger
	}
)

func NewService(
	repo Repository,
	contents ContentCounters,
	users DownloadStore,
	outcomes OutcomeRecorder,
	scorer Scorer,
	logger core.Logger,
) *Service {
	if scorer == nil {
		scorer = defaultScorer{}
	}
	return &Service{
		repo:     repo,
		contents: contents,
		users:    users,
		outcomes: outcomes,
		scorer:   scorer,
		logger:   logger,
	}
}

// Record enqueues an activity captured on a device; it always enters the
// queue as pending.
func (svc *Service) Record(userID string, na NewActivity) (OfflineActivity, error) {
	act := OfflineActivity{
		ClientID:     na.ClientID,
		UserID:       userID,
		ActivityType: na.ActivityType,
		Details:      na.Details,
		SyncStatus:   StatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	return svc.repo.CreateActivity(act)
}

func (svc *Service) ByUser(userID string) ([]OfflineActivity, error) {
	return svc.repo.ActivitiesByUser(userID)
}

// SyncUserActivities drains the user's pending queue in arrival order. Each
// activity is processed independently: a failure marks that activity failed
// and the batch continues. Synced and failed activities never return to
// pending here.
func (svc *Service) SyncUserActivities(ctx context.Context, userID string) (SyncResult, error) {
	pending, err := svc.repo.PendingActivitiesByUser(userID)
	if err != nil {
		return SyncResult{}, errors.Wrap(err, "fetching pending activities")
	}
	svc.logger.Info(fmt.Sprintf("found %d pending activities for user %s", len(pending), userID))

	var result SyncResult
	for _, act := range pending {
		if err := svc.process(ctx, act); err != nil {
			svc.logger.Error(fmt.Sprintf("failed to sync activity %s: %v", act.ID, err), err)
			if serr := svc.repo.SetActivityStatus(act.ID, StatusFailed, nil); serr != nil {
				return result, errors.Wrap(serr, "marking activity failed")
			}
			result.Failed++
			continue
		}

		now := time.Now().UTC()
		if serr := svc.repo.SetActivityStatus(act.ID, StatusSynced, &now); serr != nil {
			return result, errors.Wrap(serr, "marking activity synced")
		}
		result.Synced++
	}
	return result, nil
}

func (svc *Service) process(ctx context.Context, act OfflineActivity) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch act.ActivityType {
	case TypeQuizAttempt:
		return svc.processQuizAttempt(act)
	case TypeContentView:
		return svc.processContentView(act)
	case TypeDownload:
		return svc.processDownload(act)
	default:
		return errors.Wrapf(errUnknownType, "%q", act.ActivityType)
	}
}

func (svc *Service) processQuizAttempt(act OfflineActivity) error {
	answers := act.Details.QuizAnswers
	if len(answers) == 0 {
		return core.NewValidationError(errNoQuizAnswers,
			core.FieldError{Field: "quiz_answers", Error: errNoQuizAnswers.Error()})
	}

	score, maxScore, pct := svc.scorer.Score(answers)
	_, err := svc.outcomes.CreateOutcome(analytics.LearningOutcome{
		UserID:       act.UserID,
		CourseID:     act.Details.CourseID,
		ActivityDate: act.CreatedAt,
		ActivityType: analytics.OutcomeQuiz,
		Score:        score,
		MaxScore:     maxScore,
		Percentage:   pct,
	})
	return errors.Wrap(err, "recording learning outcome")
}

func (svc *Service) processContentView(act OfflineActivity) error {
	if act.Details.ContentID == "" {
		return errMissingContent
	}
	if err := svc.contents.IncrementViews(act.Details.ContentID); err != nil {
		return errors.Wrap(err, "incrementing views")
	}
	err := svc.outcomes.BumpEngagement(act.Details.ContentID, day(act.CreatedAt), 1, 0, 0)
	return errors.Wrap(err, "bumping engagement")
}

func (svc *Service) processDownload(act OfflineActivity) error {
	if act.Details.ContentID == "" {
		return errMissingContent
	}
	if err := svc.contents.IncrementDownloads(act.Details.ContentID); err != nil {
		return errors.Wrap(err, "incrementing downloads")
	}
	if err := svc.users.AddDownloadRecord(act.UserID, user.DownloadRecord{
		ContentID:    act.Details.ContentID,
		DownloadedAt: act.CreatedAt,
	}); err != nil {
		return errors.Wrap(err, "recording download history")
	}
	err := svc.outcomes.BumpEngagement(act.Details.ContentID, day(act.CreatedAt), 0, 1, 0)
	return errors.Wrap(err, "bumping engagement")
}

func day(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// defaultScorer marks a fixed 70% of answers correct; answer validation
// against a question bank lives outside this system.
type defaultScorer struct{}

func (defaultScorer) Score(answers []QuizAnswer) (score, maxScore int, percentage float64) {
	maxScore = len(answers)
	score = int(float64(maxScore) * 0.7)
	percentage = float64(score) / float64(maxScore) * 100
	return score, maxScore, percentage
}
