package main

import (
	"bytes"
	"context"
	"log"
	"os"
	"testing"

	"github.com/elimu-project/elimu/core/lms"
	"github.com/elimu-project/elimu/core/user"
	logsvc "github.com/elimu-project/elimu/services/logger"
	dummydb "github.com/elimu-project/elimu/storage/dummy"
)

type stubLMSClient struct {
	accounts map[string]lms.Account
}

func (c *stubLMSClient) GetUser(_ context.Context, id string) (lms.Account, error) {
	if acct, ok := c.accounts[id]; ok {
		return acct, nil
	}
	return lms.Account{}, lms.ErrAccountNotFound
}

func (c *stubLMSClient) CreateUser(_ context.Context, profile lms.Profile) (lms.Account, error) {
	acct := lms.Account{ID: "acct-" + profile.Email, Email: profile.Email}
	c.accounts[acct.ID] = acct
	return acct, nil
}

func setup(t *testing.T) (*commandLine, user.Repository) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed, %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)

	lmsSvc := lms.NewService(
		usrRepo,
		&stubLMSClient{accounts: make(map[string]lms.Account)},
		&stubLMSClient{accounts: make(map[string]lms.Account)},
		logsvc.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags)),
	)

	return &commandLine{usrRepo: usrRepo, lmsSvc: lmsSvc}, usrRepo
}

func createUser(t *testing.T, repo user.Repository, uname, email, pwd string, roles []string) user.User {
	t.Helper()

	usr := user.User{
		Name:     uname,
		Username: uname,
		Email:    email,
		IsActive: true,
		Roles:    roles,
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("SetPassword() failed, %v", err)
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("CreateUser() failed, %v", err)
	}
	return usr
}

type cliTest struct {
	name    string
	args    []string // without program name
	wantErr error
	pwd     string
}

func Test_commandLine_addUser(t *testing.T) {
	cli, repo := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "username but no email", args: []string{"adduser", "-username", "kodjo"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "kodjo", "-email", "kodjo@test.cd"}, wantErr: errHelp},
		{name: "create", args: []string{"adduser", "-username", "kodjo", "-email", "kodjo@test.cd"}, pwd: "s3cret"},
		{name: "create admin", args: []string{"adduser", "-username", "awa", "-email", "awa@test.cd", "-admin"}, pwd: "s3cret"},
		{name: "update existing", args: []string{"adduser", "-username", "kodjo", "-email", "kodjo@test.cd"}, pwd: "n3w-s3cret"},
	}
	for _, tt := range tests {
		tt := tt
		readPasswordFunc = func(fd int) ([]byte, error) { return []byte(tt.pwd), nil }

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin"}, tt.args...))
			if err != tt.wantErr {
				t.Fatalf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}

			usr, err := repo.GetUserByUsernameOrEmail("kodjo")
			if tt.name == "create admin" {
				usr, err = repo.GetUserByUsernameOrEmail("awa")
			}
			if err != nil {
				t.Fatalf("GetUserByUsernameOrEmail() failed, %v", err)
			}
			if !usr.IsActive {
				t.Error("expected user to be active")
			}
			if err := usr.CheckPassword(tt.pwd); err != nil {
				t.Error("password not set")
			}
			if tt.name == "create admin" && !usr.IsAdmin() {
				t.Error("expected admin roles")
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, repo := setup(t)

	usr := createUser(t, repo, "awe", "awe@test.cd", "mdr", nil)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, pwd: "lol", wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, pwd: "lol"},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, pwd: "lmao"},
	}
	for _, tt := range tests {
		tt := tt
		readPasswordFunc = func(fd int) ([]byte, error) { return []byte(tt.pwd), nil }

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin"}, tt.args...))
			if err == nil {
				refreshedUsr, err := repo.GetUserByID(usr.ID)
				if err != nil {
					t.Fatalf("GetUserByID() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_syncUser(t *testing.T) {
	cli, repo := setup(t)

	usr := createUser(t, repo, "amani", "amani@test.cd", "mdr", nil)

	tests := []cliTest{
		{name: "no args", args: []string{"syncuser"}, wantErr: errHelp},
		{name: "user not found", args: []string{"syncuser", "-username", "lol"}, wantErr: user.ErrNotFound},
		{name: "sync with username", args: []string{"syncuser", "-username", usr.Username}},
		{name: "sync with email", args: []string{"syncuser", "-username", usr.Email}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin"}, tt.args...))
			if err != tt.wantErr {
				t.Fatalf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}

			refreshedUsr, err := repo.GetUserByID(usr.ID)
			if err != nil {
				t.Fatalf("GetUserByID() failed, %v", err)
			}
			if refreshedUsr.MoodleUserID == "" || refreshedUsr.OpenEdxUserID == "" {
				t.Errorf("expected both platform links to be set, got %q / %q",
					refreshedUsr.MoodleUserID, refreshedUsr.OpenEdxUserID)
			}
		})
	}
}
