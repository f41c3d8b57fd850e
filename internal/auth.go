package internal

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"community-admin/apiv1"
	"community-admin/internal/logger"
)

// AdminContextKey holds the authenticated username in the gin context
const AdminContextKey = "admin"

// RequireAdmin authenticates requests with HTTP basic auth against active admin accounts
func RequireAdmin(db *gorm.DB, realm string, log logger.Logger) gin.HandlerFunc {
	admins := NewDAO[apiv1.Admin](db)
	challenge := `Basic realm="` + realm + `"`

	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", challenge)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		found, _, err := admins.List(c.Request.Context(), Query{
			Filter: map[string]interface{}{"username": username},
			Size:   1,
		})
		if err != nil {
			log.Error("Error looking up admin", "username", username, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if len(found) == 0 || !found[0].IsActive || !found[0].CheckPassword(password) {
			log.Warn("Rejected admin credentials", "username", username)
			c.Header("WWW-Authenticate", challenge)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		c.Set(AdminContextKey, found[0].Username)
		c.Next()
	}
}
