package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/elimu-project/elimu/core/user"
)

func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin && contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func teacherOrAdminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin || claims.IsTeacher {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

const contextLanguageKey = "language"

// languageMiddleware resolves the response language: the authenticated
// user's preferred language wins over the Accept-Language header.
func languageMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			lang := parseAcceptLanguage(ctx.Request().Header.Get("Accept-Language"))

			if usr, err := getContextUser(ctx, svc); err == nil && usr.PreferredLanguage != "" {
				lang = usr.PreferredLanguage
			}
			if lang == "" {
				lang = "en"
			}

			ctx.Set(contextLanguageKey, lang)
			ctx.Response().Header().Set("Content-Language", lang)
			return next(ctx)
		}
	}
}

func contextLanguage(ctx echo.Context) string {
	if lang, ok := ctx.Get(contextLanguageKey).(string); ok {
		return lang
	}
	return "en"
}

// parseAcceptLanguage returns the primary subtag of the first (highest
// priority) language range; "sw-KE,sw;q=0.9,en;q=0.8" yields "sw".
func parseAcceptLanguage(header string) string {
	if header == "" {
		return ""
	}
	first := strings.SplitN(header, ",", 2)[0]
	first = strings.SplitN(first, ";", 2)[0]
	first = strings.SplitN(strings.TrimSpace(first), "-", 2)[0]
	return strings.ToLower(first)
}
