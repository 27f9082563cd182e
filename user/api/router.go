package api

import (
	"github.com/gin-gonic/gin"
)

func RegisterUserRoutes(r gin.IRouter, handler *UserHandler) {
	userGroup := r.Group("/users")
	{
		userGroup.GET("", handler.ListUsers)
		userGroup.POST("", handler.CreateUser)
	}
}
