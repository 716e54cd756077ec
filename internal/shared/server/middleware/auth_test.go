package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"

	"interview-backend/internal/shared/auth"
)

func newAuthRouter(env string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(env))
	router.GET("/api/v1/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, strconv.FormatInt(UserIDFromContext(c), 10))
	})
	router.GET("/api/v1/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestAuthAllowsOptionsWithoutIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth("dev"))
	router.OPTIONS("/api/v1/interview/start", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/interview/start", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestAuthAcceptsBearerToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := auth.SignJWT(42, "a@example.com", "A")
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	newAuthRouter("production").ServeHTTP(resp, req)

	if resp.Code != http.StatusOK || resp.Body.String() != "42" {
		t.Fatalf("expected 200/42, got %d/%s", resp.Code, resp.Body.String())
	}
}

func TestAuthRejectsBadToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp := httptest.NewRecorder()
	newAuthRouter("dev").ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthDevHeader(t *testing.T) {
	cases := []struct {
		env    string
		header string
		status int
	}{
		{env: "dev", header: "7", status: http.StatusOK},
		{env: "local", header: "7", status: http.StatusOK},
		{env: "dev", header: "abc", status: http.StatusUnauthorized},
		{env: "production", header: "7", status: http.StatusUnauthorized},
		{env: "dev", header: "", status: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
		if tc.header != "" {
			req.Header.Set("X-User-Id", tc.header)
		}
		resp := httptest.NewRecorder()
		newAuthRouter(tc.env).ServeHTTP(resp, req)
		if resp.Code != tc.status {
			t.Fatalf("env=%s header=%q: expected %d, got %d", tc.env, tc.header, tc.status, resp.Code)
		}
	}
}

func TestAuthSkipsHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	resp := httptest.NewRecorder()
	newAuthRouter("production").ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}
