package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name string
		user *AppUser
		want int
	}{
		{name: "no user", user: nil, want: http.StatusUnauthorized},
		{name: "missing permission", user: &AppUser{UserID: "u1", Role: "user"}, want: http.StatusForbidden},
		{name: "granted", user: &AppUser{UserID: "u2", Permissions: []string{PermissionIngest}}, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := &AppContext{Context: e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec), App: &App{}, User: tt.user}

			h := RequirePermission(PermissionIngest)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})
			assert.NoError(t, h(c))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
