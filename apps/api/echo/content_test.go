package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/elimu-project/elimu/core"
	"github.com/elimu-project/elimu/core/activity"
	"github.com/elimu-project/elimu/core/analytics"
	"github.com/elimu-project/elimu/core/content"
	"github.com/elimu-project/elimu/core/course"
	"github.com/elimu-project/elimu/core/lms"
	"github.com/elimu-project/elimu/core/user"
	emailsvc "github.com/elimu-project/elimu/services/email"
	logsvc "github.com/elimu-project/elimu/services/logger"
	dummydb "github.com/elimu-project/elimu/storage/dummy"
)

type stubLMSClient struct{}

func (stubLMSClient) GetUser(_ context.Context, id string) (lms.Account, error) {
	return lms.Account{}, lms.ErrAccountNotFound
}

func (stubLMSClient) CreateUser(_ context.Context, profile lms.Profile) (lms.Account, error) {
	return lms.Account{ID: "acct-" + profile.Email, Email: profile.Email}, nil
}

type stubCatalog struct {
	courses []course.Course
}

func (cat stubCatalog) ListCourses(context.Context) ([]course.Course, error) {
	return cat.courses, nil
}

type testEnv struct {
	server    Server
	conf      *core.Config
	usrRepo   user.Repository
	usrSvc    *user.Service
	moodleCat *stubCatalog
	edxCat    *stubCatalog
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	conf := &core.Config{
		TestMode:  true,
		AppName:   "Elimu",
		SecretKey: "secret",
	}
	conf.Server.JWTExpirationDelta = time.Hour
	conf.Server.JWTRefreshExpirationDelta = 4 * time.Hour

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed, %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)
	contentRepo := dummydb.NewContentRepository(db)
	courseRepo := dummydb.NewCourseRepository(db)
	activityRepo := dummydb.NewActivityRepository(db)
	analyticsRepo := dummydb.NewAnalyticsRepository(db)

	logger := logsvc.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags))
	mailSvc := emailsvc.NewConsoleService(conf)

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)

	usrSvc := user.NewService(usrRepo)
	moodleCat, edxCat := &stubCatalog{}, &stubCatalog{}
	server := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		UserSvc:        usrSvc,
		ContentSvc:     content.NewService(contentRepo, usrRepo, mailSvc, logger, conf),
		LMSSvc:         lms.NewService(usrRepo, stubLMSClient{}, stubLMSClient{}, logger),
		CourseSvc:      course.NewService(courseRepo, moodleCat, edxCat, logger),
		ActivitySvc:    activity.NewService(activityRepo, contentRepo, usrRepo, analyticsRepo, nil, logger),
		AnalyticsSvc:   analytics.NewService(analyticsRepo),
		DisableReqLogs: true,
	})

	return &testEnv{server: server, conf: conf, usrRepo: usrRepo, usrSvc: usrSvc, moodleCat: moodleCat, edxCat: edxCat}
}

func (env *testEnv) createUser(t *testing.T, name, uname string, roles []string) user.User {
	t.Helper()

	usr, err := env.usrSvc.Create(user.NewUser{
		Name:            name,
		Username:        uname,
		Email:           uname + "@test.cd",
		Password:        "s3cret",
		PasswordConfirm: "s3cret",
		Roles:           roles,
	})
	if err != nil {
		t.Fatalf("creating %s failed, %v", uname, err)
	}
	return usr
}

func (env *testEnv) token(t *testing.T, usr user.User) string {
	t.Helper()

	token, err := GenerateToken(GetUserClaims(env.conf, usr))
	if err != nil {
		t.Fatalf("GenerateToken() failed, %v", err)
	}
	return token
}

func (env *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body failed, %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response %q failed, %v", rec.Body.String(), err)
	}
}

func Test_contentApi_create(t *testing.T) {
	env := setup(t)

	student := env.createUser(t, "Student", "studen1", []string{user.RoleStudent})
	teacher := env.createUser(t, "Teacher", "teache1", []string{user.RoleTeacher})
	admin := env.createUser(t, "Admin", "admin01", []string{user.RoleAdmin})

	payload := map[string]interface{}{
		"title": "Algebra I", "subject": "math", "content_type": "document",
	}

	t.Run("auth required", func(t *testing.T) {
		if rec := env.request(t, http.MethodPost, "/v1/content", "", payload); rec.Code != http.StatusUnauthorized {
			t.Errorf("code = %d, want 401", rec.Code)
		}
	})

	t.Run("student cannot create", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/v1/content", env.token(t, student), payload)
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %d, want 403: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("teacher upload awaits approval", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/v1/content", env.token(t, teacher), payload)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %d: %s", rec.Code, rec.Body.String())
		}
		var c content.Content
		decode(t, rec, &c)
		if c.Approved {
			t.Error("teacher upload must not be auto-approved")
		}
		if c.CreatorID != teacher.ID {
			t.Errorf("CreatorID = %q, want %q", c.CreatorID, teacher.ID)
		}
	})

	t.Run("admin upload is published", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/v1/content", env.token(t, admin), payload)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %d: %s", rec.Code, rec.Body.String())
		}
		var c content.Content
		decode(t, rec, &c)
		if !c.Approved {
			t.Error("admin upload must be auto-approved")
		}
	})

	t.Run("validation error", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/v1/content", env.token(t, teacher),
			map[string]interface{}{"title": "No subject"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d, want 400: %s", rec.Code, rec.Body.String())
		}
	})
}

func Test_contentApi_visibility(t *testing.T) {
	env := setup(t)

	student := env.createUser(t, "Student", "studen1", []string{user.RoleStudent})
	teacher := env.createUser(t, "Teacher", "teache1", []string{user.RoleTeacher})
	admin := env.createUser(t, "Admin", "admin01", []string{user.RoleAdmin})

	payload := map[string]interface{}{
		"title": "Pending upload", "subject": "math", "content_type": "document",
	}
	rec := env.request(t, http.MethodPost, "/v1/content", env.token(t, teacher), payload)
	var pending content.Content
	decode(t, rec, &pending)

	t.Run("student list excludes unapproved", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/v1/content", env.token(t, student), nil)
		var contents []content.Content
		decode(t, rec, &contents)
		if len(contents) != 0 {
			t.Errorf("student sees %d unapproved items", len(contents))
		}
	})

	t.Run("student detail view is not found", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/v1/content/"+pending.ID, env.token(t, student), nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %d, want 404", rec.Code)
		}
	})

	t.Run("creator sees their pending upload", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/v1/content/"+pending.ID, env.token(t, teacher), nil)
		if rec.Code != http.StatusOK {
			t.Errorf("code = %d, want 200: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("admin sees everything", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/v1/content/"+pending.ID, env.token(t, admin), nil)
		if rec.Code != http.StatusOK {
			t.Errorf("code = %d, want 200", rec.Code)
		}
		var c content.Content
		decode(t, rec, &c)
		// the creator's detail view above already counted once
		if c.Views != 2 {
			t.Errorf("Views = %d, want 2 (every detail view recorded)", c.Views)
		}
	})

	t.Run("non-admin edit resets approval", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/v1/content", env.token(t, admin), map[string]interface{}{
			"title": "Published", "subject": "math", "content_type": "document",
		})
		var published content.Content
		decode(t, rec, &published)

		rec = env.request(t, http.MethodPut, "/v1/content/"+published.ID, env.token(t, teacher),
			map[string]interface{}{"description": "updated"})
		if rec.Code != http.StatusForbidden {
			t.Fatalf("non-owner edit: code = %d, want 403", rec.Code)
		}

		rec = env.request(t, http.MethodPut, "/v1/content/"+pending.ID, env.token(t, teacher),
			map[string]interface{}{"description": "updated"})
		if rec.Code != http.StatusOK {
			t.Fatalf("owner edit: code = %d: %s", rec.Code, rec.Body.String())
		}
		var edited content.Content
		decode(t, rec, &edited)
		if edited.Approved {
			t.Error("non-admin edit must leave content unapproved")
		}
		if edited.Description != "updated" {
			t.Errorf("Description = %q", edited.Description)
		}
	})
}

func Test_contentApi_vote(t *testing.T) {
	env := setup(t)

	admin := env.createUser(t, "Admin", "admin01", []string{user.RoleAdmin})
	voter := env.createUser(t, "Voter", "voter01", []string{user.RoleStudent})

	rec := env.request(t, http.MethodPost, "/v1/content", env.token(t, admin), map[string]interface{}{
		"title": "Algebra I", "subject": "math", "content_type": "document",
	})
	var c content.Content
	decode(t, rec, &c)

	votePath := "/v1/content/" + c.ID + "/vote"

	t.Run("invalid choice", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, votePath, env.token(t, voter),
			map[string]interface{}{"choice": "sideways"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %d, want 400: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("vote, toggle, switch", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, votePath, env.token(t, voter),
			map[string]interface{}{"choice": "up"})
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d: %s", rec.Code, rec.Body.String())
		}
		var res content.VoteResult
		decode(t, rec, &res)
		if res.Upvotes != 1 || res.UserVote != content.ChoiceUp {
			t.Errorf("first vote = %+v", res)
		}

		rec = env.request(t, http.MethodPost, votePath, env.token(t, voter),
			map[string]interface{}{"choice": "up"})
		decode(t, rec, &res)
		if res.Upvotes != 0 || res.UserVote != content.ChoiceRetracted {
			t.Errorf("toggle = %+v, want retracted 0 upvotes", res)
		}

		rec = env.request(t, http.MethodPost, votePath, env.token(t, voter),
			map[string]interface{}{"choice": "down"})
		decode(t, rec, &res)
		if res.Downvotes != 1 || res.UserVote != content.ChoiceDown {
			t.Errorf("switch = %+v", res)
		}
	})

	t.Run("missing content", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/v1/content/nope/vote", env.token(t, voter),
			map[string]interface{}{"choice": "up"})
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %d, want 404: %s", rec.Code, rec.Body.String())
		}
	})
}

func Test_lmsApi_sync(t *testing.T) {
	env := setup(t)

	student := env.createUser(t, "Student", "studen1", []string{user.RoleStudent})
	admin := env.createUser(t, "Admin", "admin01", []string{user.RoleAdmin})

	t.Run("self sync links both platforms", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/v1/lms/sync", env.token(t, student), nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d: %s", rec.Code, rec.Body.String())
		}
		var report lms.SyncReport
		decode(t, rec, &report)
		if !report.Moodle.Success || !report.OpenEdx.Success {
			t.Errorf("report = %+v", report)
		}

		refreshed, err := env.usrRepo.GetUserByID(student.ID)
		if err != nil {
			t.Fatalf("GetUserByID() failed, %v", err)
		}
		if refreshed.MoodleUserID == "" || refreshed.OpenEdxUserID == "" {
			t.Errorf("links = %q / %q, want both set", refreshed.MoodleUserID, refreshed.OpenEdxUserID)
		}
	})

	t.Run("admin variant requires admin", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/v1/lms/sync/"+admin.ID, env.token(t, student), nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %d, want 403", rec.Code)
		}

		rec = env.request(t, http.MethodPost, "/v1/lms/sync/"+student.ID, env.token(t, admin), nil)
		if rec.Code != http.StatusOK {
			t.Errorf("code = %d, want 200: %s", rec.Code, rec.Body.String())
		}
	})
}

func Test_activityApi_sync(t *testing.T) {
	env := setup(t)

	student := env.createUser(t, "Student", "studen1", []string{user.RoleStudent})
	admin := env.createUser(t, "Admin", "admin01", []string{user.RoleAdmin})

	rec := env.request(t, http.MethodPost, "/v1/content", env.token(t, admin), map[string]interface{}{
		"title": "Algebra I", "subject": "math", "content_type": "document",
	})
	var c content.Content
	decode(t, rec, &c)

	record := func(body map[string]interface{}) {
		rec := env.request(t, http.MethodPost, "/v1/activities", env.token(t, student), body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("recording activity: code = %d: %s", rec.Code, rec.Body.String())
		}
	}

	record(map[string]interface{}{
		"activity_type": "content_view",
		"details":       map[string]interface{}{"content_id": c.ID},
	})
	record(map[string]interface{}{ // quiz without answers fails on replay
		"activity_type": "quiz_attempt",
		"details":       map[string]interface{}{"course_id": "crs1"},
	})
	record(map[string]interface{}{
		"activity_type": "download",
		"details":       map[string]interface{}{"content_id": c.ID},
	})

	rec = env.request(t, http.MethodPost, "/v1/activities/sync", env.token(t, student), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d: %s", rec.Code, rec.Body.String())
	}
	var res activity.SyncResult
	decode(t, rec, &res)
	if res.Synced != 2 || res.Failed != 1 {
		t.Errorf("result = %+v, want {Synced:2 Failed:1}", res)
	}

	rec = env.request(t, http.MethodGet, "/v1/activities", env.token(t, student), nil)
	var acts []activity.OfflineActivity
	decode(t, rec, &acts)
	if len(acts) != 3 {
		t.Fatalf("got %d activities, want 3", len(acts))
	}
	wantStatuses := []activity.Status{activity.StatusSynced, activity.StatusFailed, activity.StatusSynced}
	for i, act := range acts {
		if act.SyncStatus != wantStatuses[i] {
			t.Errorf("activity %d status = %q, want %q", i, act.SyncStatus, wantStatuses[i])
		}
	}
}
