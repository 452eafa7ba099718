package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/FrotaLink/FrotaLink/internal/common/auth"
	"github.com/FrotaLink/FrotaLink/internal/common/config"
	"github.com/gin-gonic/gin"
)

func newAuthedEngine(t *testing.T, cfg config.AuthConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuth(cfg, nil))
	r.GET("/api/vehicles", func(c *gin.Context) {
		id, ok := IdentityFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "no identity"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"subject": id.Subject, "tier": id.Tier})
	})
	r.PUT("/api/vehicles/v-1/obd", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	admin := r.Group("/api/admin", RequireCompanyTier())
	admin.GET("/dashboard", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	return r
}

func TestJWTAuthAllowsValidToken(t *testing.T) {
	cfg := config.AuthConfig{
		Enabled:   true,
		JWTSecret: "test-secret",
		Issuer:    "frotalink",
	}
	r := newAuthedEngine(t, cfg)

	token, _, err := auth.GenerateAccessToken(cfg, "emp-1", "comp-1", auth.TierDriver, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/vehicles", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestJWTAuthRejectsMissingAndBadToken(t *testing.T) {
	cfg := config.AuthConfig{Enabled: true, JWTSecret: "test-secret"}
	r := newAuthedEngine(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/vehicles", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing token, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/vehicles", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", w.Code)
	}
}

func TestJWTAuthPublicPathWildcard(t *testing.T) {
	cfg := config.AuthConfig{
		Enabled:     true,
		JWTSecret:   "test-secret",
		PublicPaths: []string{"/api/vehicles/*/obd"},
	}
	r := newAuthedEngine(t, cfg)

	// 设备上报端点免鉴权
	req := httptest.NewRequest(http.MethodPut, "/api/vehicles/v-1/obd", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected public path to pass, got %d", w.Code)
	}

	// 通配仅覆盖上报路径，其余车辆接口仍需鉴权
	req = httptest.NewRequest(http.MethodGet, "/api/vehicles", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-public path, got %d", w.Code)
	}
}

func TestMatchPathPattern(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/api/vehicles/*/obd", "/api/vehicles/v-1/obd", true},
		{"/api/vehicles/*/obd", "/api/vehicles/v-1/history", false},
		{"/api/vehicles/*/obd", "/api/vehicles", false},
		{"/api/vehicles/*", "/api/vehicles/v-1/obd", true},
		{"/api/vehicles/*", "/api/vehicles/v-1", true},
	}
	for _, c := range cases {
		if got := matchPathPattern(c.pattern, c.path); got != c.want {
			t.Errorf("matchPathPattern(%q, %q) = %v, want %v", c.pattern, c.path, got, c.want)
		}
	}
}

func TestRequireCompanyTier(t *testing.T) {
	cfg := config.AuthConfig{Enabled: true, JWTSecret: "test-secret"}
	r := newAuthedEngine(t, cfg)

	driverToken, _, _ := auth.GenerateAccessToken(cfg, "emp-1", "comp-1", auth.TierDriver, time.Hour)
	adminToken, _, _ := auth.GenerateAccessToken(cfg, "emp-2", "comp-1", auth.TierAdmin, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+driverToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for driver tier, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin tier, got %d", w.Code)
	}
}
