package auth

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/avaldez96/rescue-dispatch/internal/models"
)

const identityKey = "auth.identity"

// Header names set by the authenticating gateway after token verification.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// IdentityRequired extracts the verified caller identity from the gateway
// headers and aborts with 401 when it is missing or malformed.
func IdentityRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.GetHeader(HeaderUserID), 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "missing or invalid caller identity",
			})
			return
		}

		role := models.Role(c.GetHeader(HeaderUserRole))
		if !role.Valid() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "missing or invalid caller role",
			})
			return
		}

		c.Set(identityKey, Identity{ID: id, Role: role})
		c.Next()
	}
}

// Caller returns the identity stored by IdentityRequired.
func Caller(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	ident, ok := v.(Identity)
	return ident, ok
}
