package openedxsvc

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/elimu-project/elimu/core"
	"github.com/elimu-project/elimu/core/course"
	"github.com/elimu-project/elimu/core/lms"
)

const (
	accountsEndpoint     = "/api/user/v1/accounts/"
	registrationEndpoint = "/api/user/v1/account/registration/"
	coursesEndpoint      = "/api/courses/v1/courses/"
)

// Client talks to the Open edX user API. Accounts are addressed by
// username, which doubles as the opaque account id stored locally.
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

type edxAccount struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

func (c *Client) GetUser(ctx context.Context, id string) (lms.Account, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+accountsEndpoint+url.PathEscape(id), nil)
	if err != nil {
		return lms.Account{}, errors.Wrap(err, "building open edx request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	res, err := c.http.Do(req)
	if err != nil {
		return lms.Account{}, errors.Wrap(err, "fetching open edx account")
	}
	defer func() { _ = res.Body.Close() }()

	switch res.StatusCode {
	case http.StatusOK:
		// fallthrough to decode
	case http.StatusNotFound:
		return lms.Account{}, lms.ErrAccountNotFound
	default:
		return lms.Account{}, errors.Errorf("open edx accounts: status %d", res.StatusCode)
	}

	var acct edxAccount
	if err := json.NewDecoder(res.Body).Decode(&acct); err != nil {
		return lms.Account{}, errors.Wrap(err, "decoding open edx account")
	}
	return lms.Account{ID: acct.Username, Username: acct.Username, Email: acct.Email}, nil
}

func (c *Client) CreateUser(ctx context.Context, profile lms.Profile) (lms.Account, error) {
	username := usernameFromEmail(profile.Email)

	form := url.Values{}
	form.Set("email", profile.Email)
	form.Set("username", username)
	form.Set("name", strings.TrimSpace(profile.FirstName+" "+profile.LastName))
	form.Set("password", profile.Password)
	form.Set("country", "")
	form.Set("honor_code", "true")
	form.Set("terms_of_service", "true")

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+registrationEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return lms.Account{}, errors.Wrap(err, "building open edx request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.token)

	res, err := c.http.Do(req)
	if err != nil {
		return lms.Account{}, errors.Wrap(err, "creating open edx account")
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		body, _ := ioutil.ReadAll(res.Body)
		return lms.Account{}, errors.Errorf("open edx registration: status %d - %s",
			res.StatusCode, strings.TrimSpace(string(body)))
	}

	return lms.Account{ID: username, Username: username, Email: profile.Email}, nil
}

type edxCourse struct {
	CourseID         string `json:"course_id"`
	Name             string `json:"name"`
	Number           string `json:"number"`
	Org              string `json:"org"`
	ShortDescription string `json:"short_description"`
	Start            string `json:"start"` // RFC3339, may be empty
	End              string `json:"end"`
	Media            struct {
		CourseImage struct {
			URI string `json:"uri"`
		} `json:"course_image"`
	} `json:"media"`
}

type edxCoursePage struct {
	Results    []edxCourse `json:"results"`
	Pagination struct {
		Next string `json:"next"`
	} `json:"pagination"`
}

func (c *Client) ListCourses(ctx context.Context) ([]course.Course, error) {
	var courses []course.Course
	next := c.baseURL + coursesEndpoint
	for next != "" {
		page, err := c.fetchCoursePage(ctx, next)
		if err != nil {
			return nil, err
		}
		for _, ec := range page.Results {
			courses = append(courses, course.Course{
				Source:      string(lms.PlatformOpenEdx),
				OriginalID:  ec.CourseID,
				Title:       ec.Name,
				ShortTitle:  ec.Number,
				Description: ec.ShortDescription,
				Category:    ec.Org,
				StartDate:   parseEdxTime(ec.Start),
				EndDate:     parseEdxTime(ec.End),
				MediaURL:    c.resolveMediaURL(ec.Media.CourseImage.URI),
			})
		}
		next = page.Pagination.Next
	}
	return courses, nil
}

func (c *Client) fetchCoursePage(ctx context.Context, pageURL string) (edxCoursePage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return edxCoursePage{}, errors.Wrap(err, "building open edx request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	res, err := c.http.Do(req)
	if err != nil {
		return edxCoursePage{}, errors.Wrap(err, "fetching open edx courses")
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return edxCoursePage{}, errors.Errorf("open edx courses: status %d", res.StatusCode)
	}

	var page edxCoursePage
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		return edxCoursePage{}, errors.Wrap(err, "decoding open edx course page")
	}
	return page, nil
}

func parseEdxTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func (c *Client) resolveMediaURL(uri string) string {
	if uri == "" || strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return uri
	}
	return c.baseURL + uri
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
