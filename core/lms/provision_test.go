package lms

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/elimu-project/elimu/core/user"
)

func TestService_ensureAccount(t *testing.T) {
	usr := user.User{ID: "u1", Name: "Amani Por", Email: "amani@test.cd"}
	svc := &Service{logger: nopLogger{}}

	t.Run("no stored id creates an account", func(t *testing.T) {
		client := newFakeClient()
		acct, err := svc.ensureAccount(context.Background(), PlatformMoodle, client, usr)
		if err != nil {
			t.Fatalf("ensureAccount() failed, %v", err)
		}
		if client.getCalls != 0 {
			t.Errorf("no fetch expected without a stored id, got %d", client.getCalls)
		}
		if client.createCalls != 1 || acct.ID == "" {
			t.Errorf("expected one created account, got %d calls, id %q", client.createCalls, acct.ID)
		}
	})

	t.Run("stored id is fetched, not recreated", func(t *testing.T) {
		client := newFakeClient()
		client.accounts["m-1"] = Account{ID: "m-1", Email: usr.Email}

		linked := usr
		linked.MoodleUserID = "m-1"

		acct, err := svc.ensureAccount(context.Background(), PlatformMoodle, client, linked)
		if err != nil {
			t.Fatalf("ensureAccount() failed, %v", err)
		}
		if acct.ID != "m-1" || client.createCalls != 0 {
			t.Errorf("expected stored account m-1 with no creation, got %q, %d calls", acct.ID, client.createCalls)
		}
	})

	t.Run("not-found recovery creates exactly one account", func(t *testing.T) {
		client := newFakeClient()

		linked := usr
		linked.MoodleUserID = "m-gone"

		acct, err := svc.ensureAccount(context.Background(), PlatformMoodle, client, linked)
		if err != nil {
			t.Fatalf("ensureAccount() failed, %v", err)
		}
		if client.createCalls != 1 {
			t.Errorf("expected exactly one created account, got %d", client.createCalls)
		}
		if acct.ID == "m-gone" {
			t.Error("expected a fresh account id")
		}
	})

	t.Run("transient fetch error does not create a duplicate", func(t *testing.T) {
		client := newFakeClient()
		client.getErr = errors.New("gateway timeout")

		linked := usr
		linked.OpenEdxUserID = "e-1"

		_, err := svc.ensureAccount(context.Background(), PlatformOpenEdx, client, linked)
		if err == nil {
			t.Fatal("expected an adapter failure")
		}
		var aerr *AdapterError
		if !errors.As(err, &aerr) {
			t.Fatalf("error type = %T, want *AdapterError", err)
		}
		if aerr.Platform != PlatformOpenEdx {
			t.Errorf("Platform = %q, want %q", aerr.Platform, PlatformOpenEdx)
		}
		if client.createCalls != 0 {
			t.Errorf("no account must be created behind a transient failure, got %d", client.createCalls)
		}
	})
}

func Test_splitName(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		first, last string
	}{
		{name: "empty", in: "", first: "", last: ""},
		{name: "single token duplicated", in: "Amani", first: "Amani", last: "Amani"},
		{name: "two tokens", in: "Amani Por", first: "Amani", last: "Por"},
		{name: "many tokens", in: "Amani Por Wa Kale", first: "Amani", last: "Por Wa Kale"},
		{name: "extra whitespace", in: "  Amani   Por  ", first: "Amani", last: "Por"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := splitName(tt.in)
			if first != tt.first || last != tt.last {
				t.Errorf("splitName(%q) = %q, %q; want %q, %q", tt.in, first, last, tt.first, tt.last)
			}
		})
	}
}

func Test_buildProfile(t *testing.T) {
	usr := user.User{ID: "u1", Name: "Amani Por", Email: "amani@test.cd"}

	profile, err := buildProfile(usr)
	if err != nil {
		t.Fatalf("buildProfile() failed, %v", err)
	}
	if profile.Email != usr.Email {
		t.Errorf("Email = %q, want %q", profile.Email, usr.Email)
	}
	if profile.FirstName != "Amani" || profile.LastName != "Por" {
		t.Errorf("name split = %q/%q", profile.FirstName, profile.LastName)
	}
	if len(profile.Password) != credentialLength {
		t.Errorf("credential length = %d, want %d", len(profile.Password), credentialLength)
	}
	if profile.Language != "en" {
		t.Errorf("Language = %q, want default en", profile.Language)
	}

	usr.PreferredLanguage = "sw"
	profile, _ = buildProfile(usr)
	if profile.Language != "sw" {
		t.Errorf("Language = %q, want preferred sw", profile.Language)
	}
}
