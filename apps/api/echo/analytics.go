package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/elimu-project/elimu/core/analytics"
)

type analyticsApi struct {
	svc      *analytics.Service
	validate *validator.Validate
}

func registerAnalyticsAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := analyticsApi{svc: deps.AnalyticsSvc, validate: deps.Validate}

	ng := g.Group("/analytics", jwt)
	ng.POST("/attendance/login", api.trackLogin)
	ng.POST("/attendance/logout", api.trackLogout)
	ng.POST("/outcomes", api.recordOutcome)
	ng.GET("/outcomes", api.queryOutcomes)
	ng.GET("/engagement/:contentId", api.queryEngagement, adminMiddleware())
}

type attendanceRequest struct {
	DeviceInfo analytics.DeviceInfo `json:"device_info"`
}

func (api *analyticsApi) trackLogin(ctx echo.Context) error {
	var data attendanceRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to attendanceRequest")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	att, err := api.svc.TrackLogin(claims.Subject, ctx.RealIP(), data.DeviceInfo)
	if err != nil {
		return errors.Wrap(err, "tracking login")
	}
	return ctx.JSON(http.StatusCreated, att)
}

func (api *analyticsApi) trackLogout(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	att, err := api.svc.RecordLogout(claims.Subject)
	if err != nil {
		if errors.Cause(err) == analytics.ErrNoOpenSession {
			return echo.NewHTTPError(http.StatusBadRequest, "no open session")
		}
		return errors.Wrap(err, "recording logout")
	}
	return ctx.JSON(http.StatusOK, att)
}

func (api *analyticsApi) recordOutcome(ctx echo.Context) error {
	var data analytics.LearningOutcome
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LearningOutcome")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	data.UserID = claims.Subject

	out, err := api.svc.RecordOutcome(data)
	if err != nil {
		return errors.Wrap(err, "recording outcome")
	}
	return ctx.JSON(http.StatusCreated, out)
}

func (api *analyticsApi) queryOutcomes(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	outs, err := api.svc.OutcomesByUser(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying outcomes")
	}
	if outs == nil {
		outs = []analytics.LearningOutcome{}
	}
	return ctx.JSON(http.StatusOK, outs)
}

func (api *analyticsApi) queryEngagement(ctx echo.Context) error {
	engs, err := api.svc.EngagementForContent(ctx.Param("contentId"))
	if err != nil {
		return errors.Wrap(err, "querying engagement")
	}
	if engs == nil {
		engs = []analytics.ContentEngagement{}
	}
	return ctx.JSON(http.StatusOK, engs)
}
