package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ctxClaimsKey is where RequireSession parks the verified claims for the
// handler behind it.
const ctxClaimsKey = "tryonhub_session"

// bearerToken extracts the raw token from an Authorization header, empty
// when the header is absent or not a bearer scheme.
func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// RequireSession rejects requests without a live login. A token signed
// before the user's last logout or password change carries a stale token
// version and is refused even though its signature still verifies.
func RequireSession(tokens TokenService, repo *Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			abortUnauthorized(c, "missing credentials")
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			abortUnauthorized(c, "session invalid")
			return
		}

		if repo != nil {
			version, err := repo.GetTokenVersion(c.Request.Context(), claims.UserID)
			if err != nil || version != claims.TokenVersion {
				abortUnauthorized(c, "session expired")
				return
			}
		}

		c.Set(ctxClaimsKey, claims)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// MustGetClaims returns the claims RequireSession stored, nil when the
// route was not guarded.
func MustGetClaims(c *gin.Context) *Claims {
	v, ok := c.Get(ctxClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}
