package server

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const contextAdminActorKey = "admin_actor"

// AdminRequired authenticates admin routes against the configured argon2id
// API key hash. There is a single operator credential; per-admin identity is
// out of scope here and the actor is recorded as "admin".
func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		configured := strings.TrimSpace(s.cfg.Admin.APIKeyHash)
		if configured == "" {
			AbortWithError(c, ErrServiceUnavailable)
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.Fields(header)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		if !verifyAPIKey(parts[1], configured) {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextAdminActorKey, "admin")
		c.Next()
	}
}

func adminActorID(c *gin.Context) string {
	if actor, ok := c.Get(contextAdminActorKey); ok {
		if s, ok := actor.(string); ok {
			return s
		}
	}
	return "admin"
}
