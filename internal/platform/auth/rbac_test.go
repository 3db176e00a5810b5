package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func withRoles(roles ...string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), UserRolesKey, roles))
	return e.NewContext(req, httptest.NewRecorder())
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		granted []string
		want    bool
	}{
		{"matching role", []string{RolePhysician}, true},
		{"second allowed role", []string{RoleNurse}, true},
		{"admin bypass", []string{RoleAdmin}, true},
		{"other role", []string{RoleViewer}, false},
		{"no roles", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := withRoles(tt.granted...)
			err := RequireRole(RolePhysician, RoleNurse)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})(c)
			if tt.want && err != nil {
				t.Errorf("expected access, got %v", err)
			}
			if !tt.want {
				httpErr, ok := err.(*echo.HTTPError)
				if !ok || httpErr.Code != http.StatusForbidden {
					t.Errorf("expected 403, got %v", err)
				}
			}
		})
	}
}
