package moodlesvc

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/elimu-project/elimu/core"
	"github.com/elimu-project/elimu/core/course"
	"github.com/elimu-project/elimu/core/lms"
)

const restEndpoint = "/webservice/rest/server.php"

// Client talks to the Moodle web services REST protocol (token-based,
// form-encoded, wsfunction dispatch).
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

var (
	_ lms.Client     = (*Client)(nil)
	_ course.Catalog = (*Client)(nil)
)

func NewClient(conf core.PlatformConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(conf.BaseURL, "/"),
		token:   conf.Token,
		http:    &http.Client{Timeout: conf.Timeout},
	}
}

type moodleUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// moodleError is Moodle's error envelope; the REST endpoint answers 200 OK
// with an exception object on failure.
type moodleError struct {
	Exception string `json:"exception"`
	ErrorCode string `json:"errorcode"`
	Message   string `json:"message"`
}

func (c *Client) GetUser(ctx context.Context, id string) (lms.Account, error) {
	params := url.Values{}
	params.Set("field", "id")
	params.Set("values[0]", id)

	body, err := c.call(ctx, "core_user_get_users_by_field", params)
	if err != nil {
		return lms.Account{}, err
	}

	var users []moodleUser
	if err := json.Unmarshal(body, &users); err != nil {
		return lms.Account{}, errors.Wrap(err, "decoding moodle user list")
	}
	if len(users) == 0 {
		return lms.Account{}, lms.ErrAccountNotFound
	}
	return accountFromMoodle(users[0]), nil
}

func (c *Client) CreateUser(ctx context.Context, profile lms.Profile) (lms.Account, error) {
	params := url.Values{}
	params.Set("users[0][username]", usernameFromEmail(profile.Email))
	params.Set("users[0][password]", profile.Password)
	params.Set("users[0][firstname]", profile.FirstName)
	params.Set("users[0][lastname]", profile.LastName)
	params.Set("users[0][email]", profile.Email)
	params.Set("users[0][lang]", profile.Language)

	body, err := c.call(ctx, "core_user_create_users", params)
	if err != nil {
		return lms.Account{}, err
	}

	var users []moodleUser
	if err := json.Unmarshal(body, &users); err != nil {
		return lms.Account{}, errors.Wrap(err, "decoding moodle create response")
	}
	if len(users) == 0 {
		return lms.Account{}, errors.New("moodle returned no created user")
	}

	acct := accountFromMoodle(users[0])
	if acct.Email == "" {
		acct.Email = profile.Email
	}
	return acct, nil
}

type moodleCourse struct {
	ID         int    `json:"id"`
	FullName   string `json:"fullname"`
	ShortName  string `json:"shortname"`
	Summary    string `json:"summary"`
	CategoryID int    `json:"categoryid"`
	Format     string `json:"format"`
	StartDate  int64  `json:"startdate"` // unix seconds, 0 when unset
	EndDate    int64  `json:"enddate"`
}

func (c *Client) ListCourses(ctx context.Context) ([]course.Course, error) {
	body, err := c.call(ctx, "core_course_get_courses", url.Values{})
	if err != nil {
		return nil, err
	}

	var mcs []moodleCourse
	if err := json.Unmarshal(body, &mcs); err != nil {
		return nil, errors.Wrap(err, "decoding moodle course list")
	}

	courses := make([]course.Course, 0, len(mcs))
	for _, mc := range mcs {
		if mc.ID == 1 { // the site front page reports as a course
			continue
		}
		courses = append(courses, course.Course{
			Source:      string(lms.PlatformMoodle),
			OriginalID:  strconv.Itoa(mc.ID),
			Title:       mc.FullName,
			ShortTitle:  mc.ShortName,
			Description: mc.Summary,
			Category:    strconv.Itoa(mc.CategoryID),
			Format:      mc.Format,
			StartDate:   unixTime(mc.StartDate),
			EndDate:     unixTime(mc.EndDate),
		})
	}
	return courses, nil
}

func unixTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

func (c *Client) call(ctx context.Context, wsfunction string, params url.Values) ([]byte, error) {
	params.Set("wstoken", c.token)
	params.Set("wsfunction", wsfunction)
	params.Set("moodlewsrestformat", "json")

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+restEndpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "building moodle request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "calling %s", wsfunction)
	}
	defer func() { _ = res.Body.Close() }()

	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading moodle response")
	}
	if res.StatusCode != http.StatusOK {
		return nil, errors.Errorf("moodle %s: status %d", wsfunction, res.StatusCode)
	}

	// Moodle reports failures as a 200 OK exception object.
	var mErr moodleError
	if err := json.Unmarshal(body, &mErr); err == nil && mErr.Exception != "" {
		if mErr.ErrorCode == "invaliduser" {
			return nil, lms.ErrAccountNotFound
		}
		return nil, errors.Errorf("moodle %s: %s (%s)", wsfunction, mErr.Message, mErr.ErrorCode)
	}
	return body, nil
}

func accountFromMoodle(u moodleUser) lms.Account {
	return lms.Account{
		ID:       strconv.Itoa(u.ID),
		Username: u.Username,
		Email:    u.Email,
	}
}

func usernameFromEmail(email string) string {
	uname := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		uname = email[:i]
	}
	return strings.ToLower(strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		}
		return '_'
	}, uname))
}
