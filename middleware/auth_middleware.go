package middleware

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oumarfall/qrcodebackend/models"
	"github.com/oumarfall/qrcodebackend/utils"
)

// BootstrapCheck reports whether the user directory is still empty. Injected
// so the gate stays read-only and testable without a database.
type BootstrapCheck func(ctx context.Context) bool

// AccessControl is the single gate every request passes through. Precedence:
// public, admin-only, authenticated, default-allow; first match wins. The
// gate never mutates anything, it only decides pass/redirect and stashes the
// verified identity in the request context.
func AccessControl(isBootstrap BootstrapCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		switch {
		case isPublicPath(path):
			c.Next()

		case isAdminPath(path):
			// The very first registration must pass without a session.
			if path == "/auth/register" && isBootstrap != nil && isBootstrap(c.Request.Context()) {
				c.Next()
				return
			}
			claims, ok := sessionClaims(c)
			if !ok {
				redirectTo(c, "/auth/login")
				return
			}
			if claims.Role != string(models.RoleSuperadmin) {
				redirectTo(c, "/unauthorized")
				return
			}
			setIdentity(c, claims)
			c.Next()

		case isProtectedPath(path):
			claims, ok := sessionClaims(c)
			if !ok {
				redirectTo(c, "/auth/login")
				return
			}
			setIdentity(c, claims)
			c.Next()

		default:
			c.Next()
		}
	}
}

func isPublicPath(path string) bool {
	return path == "/auth/login" ||
		path == "/auth/forgot-password" ||
		strings.HasPrefix(path, "/auth/reset-password") ||
		strings.HasPrefix(path, "/api/redirect/")
}

func isAdminPath(path string) bool {
	return path == "/admin" ||
		strings.HasPrefix(path, "/admin/") ||
		path == "/api/users" ||
		strings.HasPrefix(path, "/api/users/") ||
		path == "/auth/register"
}

func isProtectedPath(path string) bool {
	return path == "/" ||
		path == "/dashboard" ||
		path == "/api/qrcodes" ||
		strings.HasPrefix(path, "/api/qrcodes/") ||
		path == "/api/profile" ||
		strings.HasPrefix(path, "/api/profile/")
}

// sessionClaims reads and verifies the auth-token cookie. A missing cookie
// is "no session", not an error.
func sessionClaims(c *gin.Context) (*utils.Claims, bool) {
	token, err := c.Cookie(utils.SessionCookieName)
	if err != nil || token == "" {
		return nil, false
	}
	claims, err := utils.ValidateSessionToken(token, os.Getenv("JWT_SECRET"))
	if err != nil {
		return nil, false
	}
	return claims, true
}

func setIdentity(c *gin.Context, claims *utils.Claims) {
	c.Set("userID", claims.UserID)
	c.Set("email", claims.Email)
	c.Set("name", claims.Name)
	c.Set("role", claims.Role)
	c.Set("image", claims.Image)
}

func redirectTo(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
	c.Abort()
}
