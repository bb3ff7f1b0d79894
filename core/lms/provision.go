package lms

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/elimu-project/elimu/core"
	"github.com/elimu-project/elimu/core/user"
)

const credentialLength = 24

// ensureAccount returns the user's remote account on the given platform,
// creating one when none exists. A stored id that the remote reports absent
// is an expected recovery path: a fresh account is created and the caller
// persists the new id. Any other fetch error propagates as an AdapterError
// so that no duplicate account is ever created behind a transient failure.
func (svc *Service) ensureAccount(ctx context.Context, platform Platform, client Client, usr user.User) (Account, error) {
	if storedID := usr.PlatformAccountID(string(platform)); storedID != "" {
		acct, err := client.GetUser(ctx, storedID)
		switch errors.Cause(err) {
		case nil:
			return acct, nil
		case ErrAccountNotFound:
			svc.logger.Warn(fmt.Sprintf("%s account %s for user %s no longer exists, recreating",
				platform, storedID, usr.ID))
		default:
			return Account{}, newAdapterError(platform, err, "fetching account")
		}
	}

	profile, err := buildProfile(usr)
	if err != nil {
		return Account{}, newAdapterError(platform, err, "building account profile")
	}

	acct, err := client.CreateUser(ctx, profile)
	if err != nil {
		return Account{}, newAdapterError(platform, err, "creating account")
	}
	return acct, nil
}

func buildProfile(usr user.User) (Profile, error) {
	pwd, err := core.RandomCredential(credentialLength)
	if err != nil {
		return Profile{}, errors.Wrap(err, "generating credential")
	}

	first, last := splitName(usr.Name)
	return Profile{
		Email:     usr.Email,
		FirstName: first,
		LastName:  last,
		Password:  pwd,
		Language:  usr.Language(),
	}, nil
}

// splitName breaks a display name into first/last tokens; a single-token
// name reuses the token as the last-name placeholder.
func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], parts[0]
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
