package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterMessageRoutes mounts the message endpoints used by polling clients.
func RegisterMessageRoutes(r gin.IRouter, handler *MessageHandler) {
	msgGroup := r.Group("/messages")
	{
		msgGroup.GET("", handler.ListMessages)
		msgGroup.POST("", handler.CreateMessage)
	}
}
