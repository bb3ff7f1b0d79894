package content

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/elimu-project/elimu/core"
)

var (
	// errors
	ErrNotFound = errors.New("content not found")
)

type (
	Repository interface {
		CreateContent(c Content) (Content, error)
		GetContentByID(id string) (Content, error)
		// FilterContent applies AND operation on available QueryFilter fields
		// and orders per QueryFilter.Sort.
		FilterContent(filter QueryFilter) ([]Content, error)
		UpdateContent(c Content) (Content, error)
		DeleteContent(id string) error
		IncrementViews(id string) error
		IncrementDownloads(id string) error
	}

	// ContributionStore mutates the owning user's contributions list through
	// named operations. Satisfied by user.Repository.
	ContributionStore interface {
		AddContribution(userID, contentID string) error
		RemoveContribution(userID, contentID string) error
	}

	Service struct {
		repo     Repository
		contribs ContributionStore
		mailSvc  core.EmailService
		logger   core.Logger
		conf     *core.Config
	}
)

func NewService(repo Repository, contribs ContributionStore, mailSvc core.EmailService, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		repo:     repo,
		contribs: contribs,
		mailSvc:  mailSvc,
		logger:   logger,
		conf:     conf,
	}
}

// Create stores a new content record for the given creator. Admin-created
// content is published immediately; everything else awaits approval.
func (svc *Service) Create(nc NewContent, creatorID, creatorLanguage string, autoApprove bool) (Content, error) {
	now := time.Now().UTC()

	lang := nc.Language
	if lang == "" {
		lang = creatorLanguage
	}
	if lang == "" {
		lang = "en"
	}

	c := Content{
		Title:          nc.Title,
		Description:    nc.Description,
		Subject:        nc.Subject,
		GradeLevel:     nc.GradeLevel,
		ContentType:    nc.ContentType,
		Format:         nc.Format,
		Language:       lang,
		CreatorID:      creatorID,
		FileURL:        nc.FileURL,
		FileSize:       nc.FileSize,
		ThumbnailURL:   nc.ThumbnailURL,
		Tags:           nc.Tags,
		IsDownloadable: nc.IsDownloadable,
		Votes:          Votes{},
		Approved:       autoApprove,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	c, err := svc.repo.CreateContent(c)
	if err != nil {
		return Content{}, errors.Wrap(err, "creating content")
	}
	if err := svc.contribs.AddContribution(creatorID, c.ID); err != nil {
		return Content{}, errors.Wrap(err, "recording contribution")
	}
	return c, nil
}

func (svc *Service) GetByID(id string) (Content, error) {
	return svc.repo.GetContentByID(id)
}

func (svc *Service) Filter(filter QueryFilter) ([]Content, error) {
	return svc.repo.FilterContent(filter)
}

// RecordView bumps the view counter for an authorized detail view.
func (svc *Service) RecordView(id string) error {
	return svc.repo.IncrementViews(id)
}

// Update merges the provided fields into the stored record. resetApproval
// sends previously approved content back to the pending queue (non-admin
// edits of published content).
func (svc *Service) Update(id string, uc UpdateContent, resetApproval bool) (Content, error) {
	c, err := svc.repo.GetContentByID(id)
	if err != nil {
		return Content{}, err
	}

	if uc.Title != "" {
		c.Title = uc.Title
	}
	if uc.Description != "" {
		c.Description = uc.Description
	}
	if uc.Subject != "" {
		c.Subject = uc.Subject
	}
	if uc.GradeLevel != "" {
		c.GradeLevel = uc.GradeLevel
	}
	if uc.ContentType != "" {
		c.ContentType = uc.ContentType
	}
	if uc.Format != "" {
		c.Format = uc.Format
	}
	if uc.Language != "" {
		c.Language = uc.Language
	}
	if uc.FileURL != "" {
		c.FileURL = uc.FileURL
	}
	if uc.FileSize != 0 {
		c.FileSize = uc.FileSize
	}
	if uc.ThumbnailURL != "" {
		c.ThumbnailURL = uc.ThumbnailURL
	}
	if uc.Tags != nil {
		c.Tags = uc.Tags
	}
	if uc.IsDownloadable != nil {
		c.IsDownloadable = *uc.IsDownloadable
	}

	if resetApproval && c.Approved {
		c.Approved = false
	}
	c.UpdatedAt = time.Now().UTC()

	return svc.repo.UpdateContent(c)
}

func (svc *Service) Delete(id string) error {
	c, err := svc.repo.GetContentByID(id)
	if err != nil {
		return err
	}
	if err := svc.contribs.RemoveContribution(c.CreatorID, c.ID); err != nil {
		return errors.Wrap(err, "removing contribution")
	}
	return svc.repo.DeleteContent(id)
}

// CastVote applies a user's vote to the content's aggregate, re-evaluates
// the moderation policy on the result and persists both. A repeated vote of
// the same choice retracts it; a different choice switches it.
func (svc *Service) CastVote(contentID, userID string, choice Choice) (VoteResult, error) {
	c, err := svc.repo.GetContentByID(contentID)
	if err != nil {
		return VoteResult{}, err
	}

	effective := c.Votes.Apply(userID, choice)

	out := EvaluateModeration(c.Votes.Upvotes, c.Votes.Downvotes)
	if out.Moderate && !c.IsModerated {
		c.IsModerated = true
		svc.logger.Info(fmt.Sprintf("content %s flagged for moderation (%d up / %d down)",
			c.ID, c.Votes.Upvotes, c.Votes.Downvotes))
	}
	if out.RevokeApproval && c.Approved {
		c.Approved = false
		svc.alertModerators(c)
	}
	c.UpdatedAt = time.Now().UTC()

	if _, err := svc.repo.UpdateContent(c); err != nil {
		return VoteResult{}, errors.Wrap(err, "persisting vote")
	}

	return VoteResult{
		Upvotes:   c.Votes.Upvotes,
		Downvotes: c.Votes.Downvotes,
		UserVote:  effective,
	}, nil
}

func (svc *Service) alertModerators(c Content) {
	svc.logger.Warn(fmt.Sprintf("content %s auto-unapproved by vote ratio (%d up / %d down)",
		c.ID, c.Votes.Upvotes, c.Votes.Downvotes))

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Address: svc.conf.ModerationEmail}},
		Subject: "Content auto-unapproved: " + c.Title,
		BodyStr: fmt.Sprintf(
			"Content %q (%s) was unapproved automatically after receiving %d downvotes out of %d votes.\n"+
				"Review it at %s/content/%s.\n",
			c.Title, c.ID, c.Votes.Downvotes, c.Votes.Total(), svc.conf.FrontendBaseURL, c.ID),
	})
}
