package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"remindflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func newAuthRouter(secret string, devMode bool, operator *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTMiddleware(secret, devMode))
	r.GET("/test", func(c *gin.Context) {
		*operator = service.GetOperator(c.Request.Context())
		c.Status(http.StatusOK)
	})
	return r
}

func sign(t *testing.T, secret string, claims OperatorClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestJWTMiddleware(t *testing.T) {
	const secret = "s3cret"
	valid := OperatorClaims{
		Name: "alice",
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	tests := []struct {
		name     string
		secret   string
		devMode  bool
		header   map[string]string
		wantCode int
		wantOp   string
	}{
		{"auth disabled", "", false, nil, http.StatusOK, "system"},
		{"missing token", secret, false, nil, http.StatusUnauthorized, ""},
		{"valid token", secret, false, map[string]string{"Authorization": "Bearer " + sign(t, secret, valid)}, http.StatusOK, "alice"},
		{"wrong secret", secret, false, map[string]string{"Authorization": "Bearer " + sign(t, "other", valid)}, http.StatusUnauthorized, ""},
		{"expired", secret, false, map[string]string{"Authorization": "Bearer " + sign(t, secret, expired)}, http.StatusUnauthorized, ""},
		{"dev pass", secret, true, map[string]string{"X-Dev-Pass": "true"}, http.StatusOK, "dev-admin"},
		{"dev pass outside dev mode", secret, false, map[string]string{"X-Dev-Pass": "true"}, http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var op string
			r := newAuthRouter(tt.secret, tt.devMode, &op)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/test", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if op != tt.wantOp {
				t.Errorf("operator = %q, want %q", op, tt.wantOp)
			}
		})
	}
}
