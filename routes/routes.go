package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ngfenglong/JiakAIBot/controllers"
	"github.com/ngfenglong/JiakAIBot/middlewares"
)

// SetupRouter builds the ops surface: a health check and the admin
// access-request review endpoint. The bot itself talks to Telegram over
// long polling; this server is only for operators.
func SetupRouter(adminToken string, requests controllers.AccessRequestLister) *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", controllers.Healthz)

	admin := r.Group("/admin")
	admin.Use(middlewares.AdminAuth(adminToken))
	{
		admin.GET("/access-requests", controllers.ListAccessRequests(requests))
	}

	return r
}
