package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the API surface on the router.
func RegisterRoutes(router *gin.Engine, chat *ChatHandler, history *HistoryHandler, proxy *ProxyHandler) {
	api := router.Group("/api")
	{
		api.POST("/chat", chat.Chat)
		api.POST("/image/generate", chat.GenerateImage)

		api.GET("/history", history.List)
		api.DELETE("/history", history.DeleteAll)
		api.GET("/history/:id", history.Get)
		api.DELETE("/history/:id", history.Delete)

		api.POST("/image-ai-call", proxy.ImageAICall)
	}
}
