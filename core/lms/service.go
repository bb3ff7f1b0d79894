package lms

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/elimu-project/elimu/core"
	"github.com/elimu-project/elimu/core/user"
)

type (
	// AccountLinkStore loads local users and persists their remote account
	// links. Satisfied by user.Repository.
	AccountLinkStore interface {
		GetUserByID(id string) (user.User, error)
		SetPlatformAccount(userID, platform, accountID string) error
	}

	Service struct {
		users   AccountLinkStore
		clients map[Platform]Client
		logger  core.Logger
	}
)

func NewService(users AccountLinkStore, moodle, openEdx Client, logger core.Logger) *Service {
	return &Service{
		users: users,
		clients: map[Platform]Client{
			PlatformMoodle:  moodle,
			PlatformOpenEdx: openEdx,
		},
		logger: logger,
	}
}

// SyncUser provisions the user's account on every supported platform and
// persists the returned ids. A missing user is a hard failure; once the user
// is loaded the call always returns a full report, platform failures are
// recorded in it rather than raised.
func (svc *Service) SyncUser(ctx context.Context, userID string) (SyncReport, error) {
	usr, err := svc.users.GetUserByID(userID)
	if err != nil {
		return SyncReport{}, errors.Wrap(err, "loading user")
	}

	var report SyncReport
	for _, platform := range Platforms {
		report.set(platform, svc.syncPlatform(ctx, platform, usr))
	}
	return report, nil
}

// syncPlatform is the per-platform isolation boundary: whatever goes wrong
// here ends up in the report, never in the caller's error path.
func (svc *Service) syncPlatform(ctx context.Context, platform Platform, usr user.User) PlatformReport {
	acct, err := svc.ensureAccount(ctx, platform, svc.clients[platform], usr)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("syncing user %s with %s: %v", usr.ID, platform, err), err)
		return PlatformReport{Success: false, Message: err.Error()}
	}

	// persist the link when first set or when a recreated account changed it
	if stored := usr.PlatformAccountID(string(platform)); stored != acct.ID {
		if err := svc.users.SetPlatformAccount(usr.ID, string(platform), acct.ID); err != nil {
			svc.logger.Error(fmt.Sprintf("persisting %s link for user %s: %v", platform, usr.ID, err), err)
			return PlatformReport{Success: false, Message: "persisting account link: " + err.Error()}
		}
	}

	return PlatformReport{
		Success:   true,
		Message:   fmt.Sprintf("account synchronized with %s", platform),
		AccountID: acct.ID,
	}
}
