package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const PermissionIngest = "graph.ingest"

var allPermissions = []string{
	PermissionIngest,
}

func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		app := c.(*AppContext).App

		// no key material configured: the instance runs open
		if !app.AuthEnabled() {
			c.(*AppContext).User = &AppUser{
				UserID:      "anonymous",
				Role:        "admin",
				Permissions: allPermissions,
			}
			return next(c)
		}

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")

		// Master API Key bypass
		if app.MasterAPIKey != "" && token == app.MasterAPIKey {
			c.(*AppContext).User = &AppUser{
				UserID:      "master",
				Role:        "admin",
				Permissions: allPermissions,
			}
			return next(c)
		}

		if app.Key == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		// Parse JWT token
		k := *app.Key
		parsed, err := jwt.Parse(token, k.Keyfunc)
		if err != nil || !parsed.Valid {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		user, err := userFromClaims(claims)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
		}
		c.(*AppContext).User = user

		return next(c)
	}
}

func userFromClaims(claims jwt.MapClaims) (*AppUser, error) {
	var userID string
	switch id := claims["id"].(type) {
	case string:
		userID = id
	case float64:
		userID = fmt.Sprintf("%.0f", id)
	default:
		if sub, err := claims.GetSubject(); err == nil && sub != "" {
			userID = sub
		}
	}
	if userID == "" {
		return nil, fmt.Errorf("Invalid user ID")
	}

	role := "user"
	if roleClaim, ok := claims["role"].(string); ok {
		role = roleClaim
	}

	var permissions []string
	if permsClaim, ok := claims["permissions"].([]any); ok {
		for _, p := range permsClaim {
			if pStr, ok := p.(string); ok {
				permissions = append(permissions, pStr)
			}
		}
	}

	if role == "admin" && len(permissions) == 0 {
		permissions = allPermissions
	}

	return &AppUser{
		UserID:      userID,
		Role:        role,
		Permissions: permissions,
	}, nil
}
