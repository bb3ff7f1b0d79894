package dummydb

import (
	"time"

	"github.com/elimu-project/elimu/core/activity"
)

type activityRepository struct {
	db *activityTable
}

var _ activity.Repository = (*activityRepository)(nil) // interface compliance check

func NewActivityRepository(db *DB) activity.Repository {
	return &activityRepository{db: db.activity}
}

func (repo *activityRepository) CreateActivity(act activity.OfflineActivity) (activity.OfflineActivity, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	act.ID = nextID()
	repo.db.rows = append(repo.db.rows, &act)
	return act, nil
}

func (repo *activityRepository) PendingActivitiesByUser(userID string) ([]activity.OfflineActivity, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var acts []activity.OfflineActivity
	for _, act := range repo.db.rows {
		if act.UserID == userID && act.SyncStatus == activity.StatusPending {
			acts = append(acts, *act)
		}
	}
	return acts, nil
}

func (repo *activityRepository) ActivitiesByUser(userID string) ([]activity.OfflineActivity, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var acts []activity.OfflineActivity
	for _, act := range repo.db.rows {
		if act.UserID == userID {
			acts = append(acts, *act)
		}
	}
	return acts, nil
}

func (repo *activityRepository) SetActivityStatus(id string, status activity.Status, syncedAt *time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, act := range repo.db.rows {
		if act.ID == id {
			act.SyncStatus = status
			act.SyncedAt = syncedAt
			return nil
		}
	}
	return activity.ErrNotFound
}
