package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
)

// HasPermission reports whether user was granted permission. A nil user has
// no permissions.
func HasPermission(user *AppUser, permission string) bool {
	return user != nil && slices.Contains(user.Permissions, permission)
}

// RequirePermission guards a route group behind permission. It must run after
// AuthMiddleware, which attaches the user to the AppContext.
func RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := c.(*AppContext).User
			switch {
			case user == nil:
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
			case !HasPermission(user, permission):
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": "Not allowed to change the graph (needs " + permission + ")",
				})
			}
			return next(c)
		}
	}
}
