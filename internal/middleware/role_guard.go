package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// RequireRole はAuthJWTが置いたroleが roles のどれかか確認する。
// roleが無ければ401、許可されていなければ403。IdPによって大小文字が揺れるので区別しない。
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[strings.ToUpper(r)] = struct{}{}
	}
	denied := "forbidden"
	if len(roles) == 1 {
		denied = strings.ToLower(roles[0]) + " only"
	}
	logger := log.WithField("component", "role_guard")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxUserRoleKey).(string)
			if role == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			if _, ok := allowed[strings.ToUpper(role)]; !ok {
				logger.WithFields(log.Fields{
					"user_id": UserID(c),
					"role":    role,
					"path":    c.Path(),
				}).Warn("role denied")
				return c.JSON(http.StatusForbidden, errorJSON(denied))
			}
			return next(c)
		}
	}
}

// /admin 配下
func AdminRoleGuard() echo.MiddlewareFunc {
	return RequireRole(RoleAdmin)
}
