package echoapi

import (
	"net/http"
	"testing"

	"github.com/elimu-project/elimu/core/analytics"
	"github.com/elimu-project/elimu/core/user"
)

func Test_analyticsApi_attendance(t *testing.T) {
	env := setup(t)
	student := env.createUser(t, "Student", "studen1", []string{user.RoleStudent})

	t.Run("logout without session", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/v1/analytics/attendance/logout", env.token(t, student), nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d, want 400: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("login then logout", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/v1/analytics/attendance/login", env.token(t, student),
			map[string]interface{}{
				"device_info": map[string]interface{}{"browser": "firefox", "os": "android", "device_type": "mobile"},
			})
		if rec.Code != http.StatusCreated {
			t.Fatalf("login: code = %d: %s", rec.Code, rec.Body.String())
		}
		var att analytics.UserAttendance
		decode(t, rec, &att)
		if att.UserID != student.ID || att.DeviceInfo.Browser != "firefox" {
			t.Errorf("attendance = %+v", att)
		}
		if att.LogoutTimestamp != nil {
			t.Error("fresh session already closed")
		}

		rec = env.request(t, http.MethodPost, "/v1/analytics/attendance/logout", env.token(t, student), nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("logout: code = %d: %s", rec.Code, rec.Body.String())
		}
		decode(t, rec, &att)
		if att.LogoutTimestamp == nil {
			t.Error("session not closed")
		}

		// the session is spent
		rec = env.request(t, http.MethodPost, "/v1/analytics/attendance/logout", env.token(t, student), nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("second logout: code = %d, want 400", rec.Code)
		}
	})
}

func Test_analyticsApi_outcomes(t *testing.T) {
	env := setup(t)

	student := env.createUser(t, "Student", "studen1", []string{user.RoleStudent})
	admin := env.createUser(t, "Admin", "admin01", []string{user.RoleAdmin})

	t.Run("user id comes from the token", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/v1/analytics/outcomes", env.token(t, student),
			map[string]interface{}{
				"user_id":       "someone-else",
				"course_id":     "crs1",
				"activity_type": analytics.OutcomeQuiz,
				"score":         8,
				"max_score":     10,
				"percentage":    80,
			})
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %d: %s", rec.Code, rec.Body.String())
		}
		var out analytics.LearningOutcome
		decode(t, rec, &out)
		if out.UserID != student.ID {
			t.Errorf("UserID = %q, want %q", out.UserID, student.ID)
		}
		if out.ActivityDate.IsZero() {
			t.Error("ActivityDate not defaulted")
		}
	})

	t.Run("own outcomes only", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/v1/analytics/outcomes", env.token(t, admin), nil)
		var outs []analytics.LearningOutcome
		decode(t, rec, &outs)
		if len(outs) != 0 {
			t.Errorf("admin sees %d foreign outcomes", len(outs))
		}

		rec = env.request(t, http.MethodGet, "/v1/analytics/outcomes", env.token(t, student), nil)
		decode(t, rec, &outs)
		if len(outs) != 1 {
			t.Errorf("got %d outcomes, want 1", len(outs))
		}
	})
}

func Test_analyticsApi_engagement(t *testing.T) {
	env := setup(t)

	student := env.createUser(t, "Student", "studen1", []string{user.RoleStudent})
	admin := env.createUser(t, "Admin", "admin01", []string{user.RoleAdmin})

	t.Run("admin only", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/v1/analytics/engagement/c1", env.token(t, student), nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %d, want 403", rec.Code)
		}
	})

	t.Run("empty rollup", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/v1/analytics/engagement/c1", env.token(t, admin), nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d: %s", rec.Code, rec.Body.String())
		}
		var engs []analytics.ContentEngagement
		decode(t, rec, &engs)
		if len(engs) != 0 {
			t.Errorf("engs = %+v, want empty", engs)
		}
	})
}
