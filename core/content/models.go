package content

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/elimu-project/elimu/core"
)

// Choice is a single user's vote on a content item.
type Choice string

const (
	ChoiceUp   Choice = "up"
	ChoiceDown Choice = "down"

	// ChoiceRetracted is never stored; it is reported back when a repeated
	// vote toggles an existing entry off.
	ChoiceRetracted Choice = "retracted"
)

// Voter is one recorded vote; a user appears at most once per content item.
type Voter struct {
	UserID string `json:"user_id" bson:"user_id"`
	Choice Choice `json:"choice" bson:"choice"`
}

// Votes is the per-content vote aggregate. Upvotes and Downvotes always
// equal the respective partition sizes of Voters.
type Votes struct {
	Upvotes   int     `json:"upvotes" bson:"upvotes"`
	Downvotes int     `json:"downvotes" bson:"downvotes"`
	Voters    []Voter `json:"voters" bson:"voters"`
}

// Total returns the number of currently recorded votes.
func (v *Votes) Total() int {
	return v.Upvotes + v.Downvotes
}

func (v *Votes) find(userID string) int {
	for i, vt := range v.Voters {
		if vt.UserID == userID {
			return i
		}
	}
	return -1
}

// Apply records the user's choice on the aggregate and returns the effective
// choice: the one applied, or ChoiceRetracted when a same-choice repeat
// toggled the vote off. Repeated voting is a state transition, not an error.
func (v *Votes) Apply(userID string, choice Choice) Choice {
	i := v.find(userID)
	if i < 0 {
		v.Voters = append(v.Voters, Voter{UserID: userID, Choice: choice})
		v.count(choice, 1)
		return choice
	}

	prev := v.Voters[i].Choice
	if prev == choice {
		// click again to retract
		v.Voters = append(v.Voters[:i], v.Voters[i+1:]...)
		v.count(choice, -1)
		return ChoiceRetracted
	}

	v.Voters[i].Choice = choice
	v.count(prev, -1)
	v.count(choice, 1)
	return choice
}

func (v *Votes) count(choice Choice, delta int) {
	switch choice {
	case ChoiceUp:
		v.Upvotes += delta
	case ChoiceDown:
		v.Downvotes += delta
	}
}

// Content is a shareable educational resource record.
type Content struct {
	ID             string    `json:"id" bson:"_id,omitempty"`
	Title          string    `json:"title" bson:"title"`
	Description    string    `json:"description" bson:"description"`
	Subject        string    `json:"subject" bson:"subject"`
	GradeLevel     string    `json:"grade_level" bson:"grade_level"`
	ContentType    string    `json:"content_type" bson:"content_type"`
	Format         string    `json:"format" bson:"format"`
	Language       string    `json:"language" bson:"language"`
	CreatorID      string    `json:"creator_id" bson:"creator_id"`
	FileURL        string    `json:"file_url" bson:"file_url"`
	FileSize       int64     `json:"file_size" bson:"file_size"`
	ThumbnailURL   string    `json:"thumbnail_url" bson:"thumbnail_url"`
	Tags           []string  `json:"tags" bson:"tags"`
	IsDownloadable bool      `json:"is_downloadable" bson:"is_downloadable"`
	Votes          Votes     `json:"votes" bson:"votes"`
	Approved       bool      `json:"approved" bson:"approved"`
	IsModerated    bool      `json:"is_moderated" bson:"is_moderated"`
	Views          int       `json:"views" bson:"views"`
	Downloads      int       `json:"downloads" bson:"downloads"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"` // UTC
}

// VoteResult is returned to the caller after a cast-vote operation.
type VoteResult struct {
	Upvotes   int    `json:"upvotes"`
	Downvotes int    `json:"downvotes"`
	UserVote  Choice `json:"user_vote"`
}

// NewContent contains information needed to create a new Content record.
type NewContent struct {
	Title          string   `json:"title" validate:"required"`
	Description    string   `json:"description"`
	Subject        string   `json:"subject" validate:"required"`
	GradeLevel     string   `json:"grade_level"`
	ContentType    string   `json:"content_type" validate:"required"`
	Format         string   `json:"format"`
	Language       string   `json:"language" validate:"omitempty,alpha,len=2"`
	FileURL        string   `json:"file_url" validate:"omitempty,url"`
	FileSize       int64    `json:"file_size" validate:"omitempty,min=0"`
	ThumbnailURL   string   `json:"thumbnail_url" validate:"omitempty,url"`
	Tags           []string `json:"tags"`
	IsDownloadable bool     `json:"is_downloadable"`
}

func (nc *NewContent) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Subject = core.CleanString(nc.Subject)
	nc.Language = core.CleanString(nc.Language, true /* lower */)
	return validate.Struct(nc)
}

// UpdateContent defines what information may be provided to modify an
// existing Content record. Empty fields are left untouched.
type UpdateContent struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Subject        string   `json:"subject"`
	GradeLevel     string   `json:"grade_level"`
	ContentType    string   `json:"content_type"`
	Format         string   `json:"format"`
	Language       string   `json:"language" validate:"omitempty,alpha,len=2"`
	FileURL        string   `json:"file_url" validate:"omitempty,url"`
	FileSize       int64    `json:"file_size" validate:"omitempty,min=0"`
	ThumbnailURL   string   `json:"thumbnail_url" validate:"omitempty,url"`
	Tags           []string `json:"tags"`
	IsDownloadable *bool    `json:"is_downloadable"`
}

func (uc *UpdateContent) Validate(validate *validator.Validate) error {
	uc.Title = core.CleanString(uc.Title)
	uc.Language = core.CleanString(uc.Language, true /* lower */)
	return validate.Struct(uc)
}

// CastVoteRequest is the cast-vote payload.
type CastVoteRequest struct {
	Choice Choice `json:"choice" validate:"required,oneof=up down"`
}

func (cv *CastVoteRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(cv)
}

type QueryFilter struct {
	Subject     string `query:"subject"`
	GradeLevel  string `query:"grade_level"`
	ContentType string `query:"content_type"`
	Format      string `query:"format"`
	Language    string `query:"language"`
	Search      string `query:"search"`
	CreatorID   string `query:"-"`
	Approved    *bool  `query:"approved"`
	Sort        string `query:"sort"` // newest | popular | most_downloaded | highest_rated
	Page        int    `query:"page"`
	Limit       int    `query:"limit"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	if qf.Page < 1 {
		qf.Page = 1
	}
	if qf.Limit < 1 || qf.Limit > 100 {
		qf.Limit = 10
	}
}
