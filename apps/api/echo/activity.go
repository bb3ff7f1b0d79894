package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/elimu-project/elimu/core/activity"
)

type activityApi struct {
	svc      *activity.Service
	validate *validator.Validate
}

func registerActivityAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := activityApi{svc: deps.ActivitySvc, validate: deps.Validate}

	ag := g.Group("/activities", jwt)
	ag.POST("", api.record)
	ag.GET("", api.query)
	ag.POST("/sync", api.sync)
}

// record enqueues an activity captured on the device while offline.
func (api *activityApi) record(ctx echo.Context) error {
	var data activity.NewActivity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewActivity")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	act, err := api.svc.Record(claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "recording activity")
	}
	return ctx.JSON(http.StatusCreated, act)
}

func (api *activityApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	acts, err := api.svc.ByUser(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying activities")
	}
	if acts == nil {
		acts = []activity.OfflineActivity{}
	}
	return ctx.JSON(http.StatusOK, acts)
}

// sync replays the caller's pending activities against the live services.
func (api *activityApi) sync(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	res, err := api.svc.SyncUserActivities(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "syncing activities")
	}
	return ctx.JSON(http.StatusOK, res)
}
