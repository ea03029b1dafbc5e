package middleware

import (
	"github.com/gin-gonic/gin"
	domainerrors "settleline.backend/internal/domain/errors"
	"settleline.backend/internal/interfaces/http/response"
)

const (
	// ActorHeader carries the admin identity asserted by the external
	// dashboard. The engine records it in audit entries; authentication
	// itself is owned by the dashboard's gateway.
	ActorHeader = "X-Admin-ID"

	actorKey = "actor_id"
)

// ActorMiddleware requires an admin identity on override endpoints
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader(ActorHeader)
		if actor == "" {
			response.Error(c, domainerrors.Unauthorized("missing "+ActorHeader+" header"))
			c.Abort()
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// GetActor returns the admin identity set by ActorMiddleware
func GetActor(c *gin.Context) (string, bool) {
	actor := c.GetString(actorKey)
	return actor, actor != ""
}
