package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/oumarfall/qrcodebackend/utils"
	"github.com/stretchr/testify/require"
)

func newGateRouter(t *testing.T, bootstrap bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(AccessControl(func(ctx context.Context) bool { return bootstrap }))

	ok := func(c *gin.Context) {
		role, _ := c.Get("role")
		roleStr, _ := role.(string)
		c.JSON(http.StatusOK, gin.H{"role": roleStr})
	}

	r.POST("/auth/register", ok)
	r.POST("/auth/login", ok)
	r.POST("/auth/forgot-password", ok)
	r.POST("/auth/reset-password", ok)
	r.GET("/api/redirect/:id", ok)
	r.GET("/", ok)
	r.GET("/dashboard", ok)
	r.GET("/api/qrcodes", ok)
	r.DELETE("/api/qrcodes/:id", ok)
	r.GET("/api/users", ok)
	r.GET("/api/profile", ok)
	r.GET("/healthz", ok)
	return r
}

func doRequest(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: utils.SessionCookieName, Value: token})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sessionToken(t *testing.T, role string) string {
	t.Helper()
	tok, err := utils.GenerateSessionToken("u1", "a@x.com", "A", role, "")
	require.NoError(t, err)
	return tok
}

func TestGate_PublicPathsNeedNoToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "gate-secret")
	r := newGateRouter(t, false)

	for _, p := range []string{"/auth/login", "/auth/forgot-password", "/auth/reset-password"} {
		w := doRequest(r, http.MethodPost, p, "")
		require.Equal(t, http.StatusOK, w.Code, p)
	}
	w := doRequest(r, http.MethodGet, "/api/redirect/abc", "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestGate_ProtectedPathRedirectsToLogin(t *testing.T) {
	t.Setenv("JWT_SECRET", "gate-secret")
	r := newGateRouter(t, false)

	for _, p := range []string{"/", "/dashboard", "/api/qrcodes", "/api/profile"} {
		w := doRequest(r, http.MethodGet, p, "")
		require.Equal(t, http.StatusFound, w.Code, p)
		require.Equal(t, "/auth/login", w.Header().Get("Location"), p)
	}
}

func TestGate_ProtectedPathAllowsAnyValidSession(t *testing.T) {
	t.Setenv("JWT_SECRET", "gate-secret")
	r := newGateRouter(t, false)

	w := doRequest(r, http.MethodGet, "/api/qrcodes", sessionToken(t, "USER"))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"role":"USER"`)
}

func TestGate_AdminPathRejectsNonSuperadmin(t *testing.T) {
	t.Setenv("JWT_SECRET", "gate-secret")
	r := newGateRouter(t, false)

	// wrong role on a valid token: unauthorized page, not login
	w := doRequest(r, http.MethodGet, "/api/users", sessionToken(t, "ADMIN"))
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/unauthorized", w.Header().Get("Location"))

	// no token at all: back to login
	w = doRequest(r, http.MethodGet, "/api/users", "")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/auth/login", w.Header().Get("Location"))
}

func TestGate_AdminPathAllowsSuperadmin(t *testing.T) {
	t.Setenv("JWT_SECRET", "gate-secret")
	r := newGateRouter(t, false)

	w := doRequest(r, http.MethodGet, "/api/users", sessionToken(t, "SUPERADMIN"))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"role":"SUPERADMIN"`)
}

func TestGate_RegisterIsAdminOnlyAfterBootstrap(t *testing.T) {
	t.Setenv("JWT_SECRET", "gate-secret")

	// empty directory: registration passes without a session
	r := newGateRouter(t, true)
	w := doRequest(r, http.MethodPost, "/auth/register", "")
	require.Equal(t, http.StatusOK, w.Code)

	// populated directory: superadmin session required
	r = newGateRouter(t, false)
	w = doRequest(r, http.MethodPost, "/auth/register", "")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/auth/login", w.Header().Get("Location"))

	w = doRequest(r, http.MethodPost, "/auth/register", sessionToken(t, "SUPERADMIN"))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestGate_InvalidOrTamperedTokenRedirectsToLogin(t *testing.T) {
	t.Setenv("JWT_SECRET", "gate-secret")
	r := newGateRouter(t, false)

	w := doRequest(r, http.MethodGet, "/dashboard", "garbage.token.here")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/auth/login", w.Header().Get("Location"))

	tok := sessionToken(t, "USER")
	w = doRequest(r, http.MethodGet, "/dashboard", tok+"x")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/auth/login", w.Header().Get("Location"))
}

func TestGate_UnclassifiedPathPassesThrough(t *testing.T) {
	t.Setenv("JWT_SECRET", "gate-secret")
	r := newGateRouter(t, false)

	w := doRequest(r, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
}
