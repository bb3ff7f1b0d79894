package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/elimu-project/elimu/core/content"
	"github.com/elimu-project/elimu/core/user"
)

type contentApi struct {
	svc      *content.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerContentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := contentApi{
		svc:      deps.ContentSvc,
		userSvc:  deps.UserSvc,
		validate: deps.Validate,
	}

	cg := g.Group("/content", jwt, languageMiddleware(deps.UserSvc))
	cg.POST("", api.create, teacherOrAdminMiddleware())
	cg.GET("", api.query)

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/vote", api.vote)
}

func (api *contentApi) create(ctx echo.Context) error {
	var data content.NewContent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewContent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	// admin uploads go live immediately; everything else awaits approval
	c, err := api.svc.Create(data, ctxUsr.ID, contextLanguage(ctx), ctxUsr.IsAdmin())
	if err != nil {
		return errors.Wrap(err, "creating content")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *contentApi) query(ctx echo.Context) error {
	filter := new(content.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []content.Content{})
	}
	filter.Clean()

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	// students only ever see the approved catalog; teachers additionally
	// see their own pending uploads
	if !ctxUsr.IsAdmin() {
		if ctxUsr.IsTeacher() && filter.CreatorID == "" && onlyOwn(ctx) {
			filter.CreatorID = ctxUsr.ID
		} else {
			approved := true
			filter.Approved = &approved
		}
	}

	contents, err := api.svc.Filter(*filter)
	if err != nil {
		return errors.Wrap(err, "querying content")
	}
	if contents == nil {
		contents = []content.Content{}
	}
	return ctx.JSON(http.StatusOK, contents)
}

func onlyOwn(ctx echo.Context) bool {
	return ctx.QueryParam("mine") == "true"
}

func (api *contentApi) retrieve(ctx echo.Context) error {
	c, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !api.canSee(ctxUsr, c) {
		return errHttpNotFound
	}

	if err := api.svc.RecordView(c.ID); err != nil {
		return errors.Wrap(err, "recording view")
	}
	c.Views++
	return ctx.JSON(http.StatusOK, c)
}

// canSee applies the approval visibility rule: unapproved content is only
// visible to its creator and admins.
func (api *contentApi) canSee(usr user.User, c content.Content) bool {
	if c.Approved {
		return true
	}
	return usr.IsAdmin() || c.CreatorID == usr.ID
}

func (api *contentApi) update(ctx echo.Context) error {
	c, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.IsAdmin() && c.CreatorID != ctxUsr.ID {
		return errHttpForbidden
	}

	var data content.UpdateContent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateContent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	// a non-admin edit of published content sends it back for approval
	c, err = api.svc.Update(c.ID, data, !ctxUsr.IsAdmin())
	if err != nil {
		return errors.Wrap(err, "updating content")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *contentApi) destroy(ctx echo.Context) error {
	c, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.IsAdmin() && c.CreatorID != ctxUsr.ID {
		return errHttpForbidden
	}

	if err := api.svc.Delete(c.ID); err != nil {
		return errors.Wrap(err, "deleting content")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *contentApi) vote(ctx echo.Context) error {
	var data content.CastVoteRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CastVoteRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	res, err := api.svc.CastVote(ctx.Param("id"), claims.Subject, data.Choice)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}
