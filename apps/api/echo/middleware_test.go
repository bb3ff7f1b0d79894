package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/elimu-project/elimu/core/user"
)

func Test_parseAcceptLanguage(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"empty", "", ""},
		{"plain", "en", "en"},
		{"with region", "sw-KE", "sw"},
		{"full range list", "sw-KE,sw;q=0.9,en;q=0.8", "sw"},
		{"quality on first", "fr;q=0.9", "fr"},
		{"uppercase", "FR-CA", "fr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseAcceptLanguage(tt.header); got != tt.want {
				t.Errorf("parseAcceptLanguage(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func Test_languageMiddleware_precedence(t *testing.T) {
	env := setup(t)

	student := env.createUser(t, "Student", "studen1", []string{user.RoleStudent})
	swahili := env.createUser(t, "Swahili", "swahil1", []string{user.RoleStudent})
	if _, err := env.usrSvc.Update(swahili.ID, user.UpdateUser{
		Name:              swahili.Name,
		Username:          swahili.Username,
		Email:             swahili.Email,
		PreferredLanguage: "sw",
	}); err != nil {
		t.Fatalf("setting preferred language failed, %v", err)
	}

	get := func(t *testing.T, usr user.User, acceptLanguage string) string {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/v1/content", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+env.token(t, usr))
		if acceptLanguage != "" {
			req.Header.Set("Accept-Language", acceptLanguage)
		}
		rec := httptest.NewRecorder()
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d: %s", rec.Code, rec.Body.String())
		}
		return rec.Header().Get("Content-Language")
	}

	t.Run("default", func(t *testing.T) {
		if lang := get(t, student, ""); lang != "en" {
			t.Errorf("Content-Language = %q, want en", lang)
		}
	})

	t.Run("header honored", func(t *testing.T) {
		if lang := get(t, student, "fr-CD,fr;q=0.9"); lang != "fr" {
			t.Errorf("Content-Language = %q, want fr", lang)
		}
	})

	t.Run("preference beats header", func(t *testing.T) {
		if lang := get(t, swahili, "fr-CD,fr;q=0.9"); lang != "sw" {
			t.Errorf("Content-Language = %q, want sw", lang)
		}
	})
}
