package http

import (
	"github.com/gin-gonic/gin"

	"github.com/yanqian/doc-summarizer/internal/domain/auth"
)

const authClaimsKey = "auth_claims"

func setClaims(c *gin.Context, claims auth.Claims) {
	c.Set(authClaimsKey, claims)
}

func getClaims(c *gin.Context) (auth.Claims, bool) {
	value, ok := c.Get(authClaimsKey)
	if !ok {
		return auth.Claims{}, false
	}
	claims, ok := value.(auth.Claims)
	return claims, ok
}

// userID returns the authenticated user or 0 for anonymous requests.
func userID(c *gin.Context) int64 {
	claims, ok := getClaims(c)
	if !ok {
		return 0
	}
	return claims.UserID
}
