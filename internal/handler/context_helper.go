package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Rabea25/SISAPI/internal/middleware"
	"github.com/Rabea25/SISAPI/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func actorMeta(c *gin.Context) map[string]interface{} {
	claims := claimsFromContext(c)
	if claims == nil {
		return nil
	}
	return map[string]interface{}{"actor_id": claims.UserID, "actor_role": claims.Role}
}
