package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/modelly/modelly-backend/internal/chat"
	"github.com/modelly/modelly-backend/internal/common"
	"github.com/modelly/modelly-backend/internal/config"
	"github.com/modelly/modelly-backend/internal/httpapi/handlers"
	"github.com/modelly/modelly-backend/internal/httpapi/middleware"
	"github.com/modelly/modelly-backend/internal/realtime"
	"github.com/modelly/modelly-backend/internal/store/redisstore"
)

func NewRouter(db *gorm.DB, cfg config.Config, rds *redisstore.Store, chatSvc *chat.Service, ws *realtime.Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		AllowCredentials: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	h := handlers.NewHandler(db, cfg, rds, chatSvc)

	r.GET("/ping", h.Ping)

	// captcha
	r.POST("/captcha", h.SendCaptcha)

	// CRUD users register
	r.POST("/users", h.CreateUser)
	r.GET("/users/:id", h.GetUserByID)

	// auth
	r.POST("/login", h.Login)

	// payment collaborator callback (shared-secret auth)
	r.POST("/payments/webhook", h.PaymentWebhook)

	// realtime gateway (token via query param, browsers cannot set headers here)
	r.GET("/ws", ws.Serve)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	authGroup.GET("/me", h.Me)

	// Chat (JWT required)
	authGroup.POST("/chats", h.StartChat)
	authGroup.GET("/chats", h.ListChats)
	authGroup.GET("/chats/:chat_id", h.GetChat)
	authGroup.POST("/chats/:chat_id/messages", h.SendChatMessage)
	authGroup.PUT("/chats/:chat_id/block", h.ToggleBlockChat)

	// Notifications
	authGroup.GET("/notifications", h.ListNotifications)
	authGroup.PUT("/notifications/:id/read", h.MarkNotificationRead)

	return r
}
