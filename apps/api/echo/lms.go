package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/elimu-project/elimu/core/lms"
	"github.com/elimu-project/elimu/core/user"
)

type lmsApi struct {
	svc     *lms.Service
	userSvc *user.Service
}

func registerLMSAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := lmsApi{svc: deps.LMSSvc, userSvc: deps.UserSvc}

	lg := g.Group("/lms", jwt)
	lg.POST("/sync", api.syncSelf)
	lg.POST("/sync/:id", api.syncUser, adminMiddleware())
}

// syncSelf provisions the caller's accounts on all supported platforms.
func (api *lmsApi) syncSelf(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	return api.sync(ctx, claims.Subject)
}

func (api *lmsApi) syncUser(ctx echo.Context) error {
	return api.sync(ctx, ctx.Param("id"))
}

func (api *lmsApi) sync(ctx echo.Context, userID string) error {
	report, err := api.svc.SyncUser(ctx.Request().Context(), userID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, report)
}
