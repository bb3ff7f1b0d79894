package lms

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Platform identifies one external LMS identity system.
type Platform string

const (
	PlatformMoodle  Platform = "moodle"
	PlatformOpenEdx Platform = "openedx"
)

// Platforms lists every supported platform in sync order.
var Platforms = []Platform{PlatformMoodle, PlatformOpenEdx}

// ErrAccountNotFound is returned by Client.GetUser when the remote system
// confirms the account is absent (as opposed to being unreachable).
var ErrAccountNotFound = errors.New("remote account not found")

// Account is a remote LMS account, identified by an opaque id.
type Account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Profile carries the fields needed to create a remote account.
type Profile struct {
	Email     string
	FirstName string
	LastName  string
	Password  string // freshly generated, never exposed to the end user
	Language  string
}

// Client talks to one remote LMS identity service.
type Client interface {
	GetUser(ctx context.Context, id string) (Account, error)
	CreateUser(ctx context.Context, profile Profile) (Account, error)
}

// AdapterError is a single-platform failure. The orchestrator records it in
// the sync report instead of failing the whole operation.
type AdapterError struct {
	Platform Platform
	Message  string
	Err      error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s: %s", e.Platform, e.Message)
}

func (e *AdapterError) Unwrap() error { return e.Err }

func newAdapterError(platform Platform, err error, msg string) *AdapterError {
	return &AdapterError{Platform: platform, Message: msg + ": " + err.Error(), Err: err}
}

// PlatformReport is the per-platform outcome of one sync invocation.
type PlatformReport struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	AccountID string `json:"accountId,omitempty"`
}

// SyncReport aggregates both platforms. It is not persisted; the account
// links on the user record are.
type SyncReport struct {
	Moodle  PlatformReport `json:"moodle"`
	OpenEdx PlatformReport `json:"openEdx"`
}

func (r *SyncReport) set(platform Platform, rep PlatformReport) {
	switch platform {
	case PlatformMoodle:
		r.Moodle = rep
	case PlatformOpenEdx:
		r.OpenEdx = rep
	}
}

// Platform returns the report recorded for the given platform.
func (r *SyncReport) Platform(platform Platform) PlatformReport {
	if platform == PlatformMoodle {
		return r.Moodle
	}
	return r.OpenEdx
}
