package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/confbook/booking-service/internal/model"
	"github.com/confbook/booking-service/pkg/auth"
)

func signToken(t *testing.T, expiresAt *jwt.NumericDate) string {
	t.Helper()
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: expiresAt},
	}
	claims.Profile.Username = "alice"
	claims.Profile.Role = model.RoleUser

	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(auth.JWTKey)
	require.NoError(t, err)
	return s
}

func TestJwtAuthentication(t *testing.T) {
	t.Parallel()
	valid := signToken(t, jwt.NewNumericDate(time.Now().Add(time.Hour)))
	noExpiry := signToken(t, nil)

	tests := []struct {
		name         string
		header       string
		expectedCode int
	}{
		{name: "ok", header: bearer + valid, expectedCode: http.StatusOK},
		{name: "err. no header", header: "", expectedCode: http.StatusUnauthorized},
		{name: "err. not bearer", header: "Basic abc", expectedCode: http.StatusUnauthorized},
		{name: "err. garbage token", header: bearer + "garbage", expectedCode: http.StatusUnauthorized},
		{name: "err. validly signed but no expiry claim", header: bearer + noExpiry, expectedCode: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := echo.New()
			e.GET("/whoami", func(c echo.Context) error {
				return c.String(http.StatusOK, auth.UserName(c.Request().Context()))
			}, jwtAuthentication)

			r := httptest.NewRequest(http.MethodGet, "/whoami", http.NoBody)
			if tt.header != "" {
				r.Header.Set(authorizationHeader, tt.header)
			}
			w := httptest.NewRecorder()

			e.ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusOK {
				require.Equal(t, "alice", w.Body.String())
			}
		})
	}
}
