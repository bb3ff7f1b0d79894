package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elimu-project/elimu/core/user"
)

func Test_userApi_login(t *testing.T) {
	env := setup(t)

	env.createUser(t, "Student", "studen1", []string{user.RoleStudent})
	lazarus := env.createUser(t, "Lazarus", "lazaru1", []string{user.RoleStudent})
	inactive := false
	deactivate := user.UpdateUser{
		Name:     lazarus.Name,
		Username: lazarus.Username,
		Email:    lazarus.Email,
		IsActive: &inactive,
	}
	if _, err := env.usrSvc.Update(lazarus.ID, deactivate); err != nil {
		t.Fatalf("deactivating user failed, %v", err)
	}

	tests := []struct {
		name     string
		body     map[string]interface{}
		wantCode int
	}{
		{"empty payload", map[string]interface{}{}, http.StatusBadRequest},
		{"unknown user", map[string]interface{}{"username": "ghost99", "password": "s3cret"}, http.StatusBadRequest},
		{"wrong password", map[string]interface{}{"username": "studen1", "password": "nope"}, http.StatusBadRequest},
		{"deactivated account", map[string]interface{}{"username": "lazaru1", "password": "s3cret"}, http.StatusForbidden},
		{"by username", map[string]interface{}{"username": "studen1", "password": "s3cret"}, http.StatusOK},
		{"by email", map[string]interface{}{"username": "studen1@test.cd", "password": "s3cret"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.request(t, http.MethodPost, "/v1/users/login", "", tt.body)
			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode == http.StatusOK {
				var res LoginResponse
				decode(t, rec, &res)
				if res.Token == "" {
					t.Error("token is empty")
				}
			}
		})
	}
}

func Test_userApi_query(t *testing.T) {
	env := setup(t)

	student := env.createUser(t, "Student", "studen1", []string{user.RoleStudent})
	env.createUser(t, "Teacher", "teache1", []string{user.RoleTeacher})
	admin := env.createUser(t, "Admin", "admin01", []string{user.RoleAdmin})

	t.Run("admin only", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/v1/users", env.token(t, student), nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %d, want 403", rec.Code)
		}
	})

	t.Run("lists all users", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/v1/users", env.token(t, admin), nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d: %s", rec.Code, rec.Body.String())
		}
		var users []user.User
		decode(t, rec, &users)
		unames := make([]string, 0, len(users))
		for _, usr := range users {
			unames = append(unames, usr.Username)
		}
		assert.ElementsMatch(t, []string{"studen1", "teache1", "admin01"}, unames)
	})

	t.Run("search filter", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/v1/users?search=teache", env.token(t, admin), nil)
		var users []user.User
		decode(t, rec, &users)
		if len(users) != 1 || users[0].Username != "teache1" {
			t.Errorf("users = %+v, want just teache1", users)
		}
	})

	t.Run("roles catalog", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/v1/users/roles", env.token(t, admin), nil)
		if rec.Code != http.StatusOK {
			t.Errorf("code = %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func Test_userApi_detail(t *testing.T) {
	env := setup(t)

	student := env.createUser(t, "Student", "studen1", []string{user.RoleStudent})
	other := env.createUser(t, "Other", "other01", []string{user.RoleStudent})
	admin := env.createUser(t, "Admin", "admin01", []string{user.RoleAdmin})

	t.Run("self retrieve", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/v1/users/"+student.ID, env.token(t, student), nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d: %s", rec.Code, rec.Body.String())
		}
		var usr user.User
		decode(t, rec, &usr)
		if usr.ID != student.ID {
			t.Errorf("ID = %q, want %q", usr.ID, student.ID)
		}
	})

	t.Run("peers are hidden", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/v1/users/"+other.ID, env.token(t, student), nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %d, want 404", rec.Code)
		}
	})

	t.Run("admin retrieves anyone", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/v1/users/"+other.ID, env.token(t, admin), nil)
		if rec.Code != http.StatusOK {
			t.Errorf("code = %d, want 200", rec.Code)
		}
	})

	t.Run("self update restricted fields", func(t *testing.T) {
		rec := env.request(t, http.MethodPut, "/v1/users/"+student.ID, env.token(t, student),
			map[string]interface{}{"roles": []string{user.RoleAdmin}})
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %d, want 403: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("self update allowed fields", func(t *testing.T) {
		rec := env.request(t, http.MethodPut, "/v1/users/"+student.ID, env.token(t, student),
			map[string]interface{}{"preferred_language": "sw"})
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d: %s", rec.Code, rec.Body.String())
		}
		var usr user.User
		decode(t, rec, &usr)
		if usr.PreferredLanguage != "sw" {
			t.Errorf("PreferredLanguage = %q, want sw", usr.PreferredLanguage)
		}
	})

	t.Run("no self delete", func(t *testing.T) {
		rec := env.request(t, http.MethodDelete, "/v1/users/"+admin.ID, env.token(t, admin), nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %d, want 403", rec.Code)
		}
	})

	t.Run("admin delete", func(t *testing.T) {
		rec := env.request(t, http.MethodDelete, "/v1/users/"+other.ID, env.token(t, admin), nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("code = %d: %s", rec.Code, rec.Body.String())
		}
		if _, err := env.usrSvc.GetByID(other.ID); err == nil {
			t.Error("user still present after delete")
		}
	})
}

func Test_userApi_refreshToken(t *testing.T) {
	env := setup(t)
	student := env.createUser(t, "Student", "studen1", []string{user.RoleStudent})

	rec := env.request(t, http.MethodPost, "/v1/users/token-refresh", env.token(t, student), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d: %s", rec.Code, rec.Body.String())
	}
	var res LoginResponse
	decode(t, rec, &res)
	if res.Token == "" {
		t.Error("token is empty")
	}
}
