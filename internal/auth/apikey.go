package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// tenantCtxKey is the Gin context key used to store the authenticated tenant ID.
const tenantCtxKey = "tenant_id"

// APIKeyMiddleware maps the caller's key to a tenant. The key is read from
// X-API-Key, or from an "Authorization: Bearer" header when X-API-Key is absent.
func APIKeyMiddleware(keys map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := keys[presentedKey(c)]
		if !ok || tenantID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(tenantCtxKey, tenantID)
		c.Next()
	}
}

func presentedKey(c *gin.Context) string {
	if key := strings.TrimSpace(c.GetHeader("X-API-Key")); key != "" {
		return key
	}
	authz := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return ""
}

// TenantID returns the authenticated tenant ID from the request context.
func TenantID(c *gin.Context) string {
	v, _ := c.Get(tenantCtxKey)
	s, _ := v.(string)
	return s
}
