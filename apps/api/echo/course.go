package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/elimu-project/elimu/core/course"
)

type courseApi struct {
	svc *course.Service
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := courseApi{svc: deps.CourseSvc}

	cg := g.Group("/courses", jwt)
	cg.GET("", api.query)
	cg.POST("/sync", api.sync, adminMiddleware())
}

func (api *courseApi) query(ctx echo.Context) error {
	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	filter.Clean()

	courses, err := api.svc.Filter(*filter)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

// sync pulls the course catalogs from all platforms into the unified store.
func (api *courseApi) sync(ctx echo.Context) error {
	report, err := api.svc.SyncCourses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "synchronizing courses")
	}
	return ctx.JSON(http.StatusOK, report)
}
