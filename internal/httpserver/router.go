package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/grupobacar/helpdesk/internal/model"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	authHandler *AuthHandler,
	notificationHandler *NotificationHandler,
	eventsHandler *EventsHandler,
	jwtSecret string,
) *Router {
	r := gin.Default()
	r.Use(MetricsMiddleware())

	// Public
	r.POST("/api/login", authHandler.Login)
	r.GET("/api/events", eventsHandler.Stream)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "helpdesk-notifications"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected
	api := r.Group("/api")
	api.Use(AuthMiddleware(jwtSecret))
	{
		notifications := api.Group("/notifications")
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
			notifications.PUT("/read-all", notificationHandler.MarkAllRead)

			notifications.POST("",
				RequireCapability(model.CapabilityNotifyUser),
				notificationHandler.Notify,
			)
			notifications.POST("/role",
				RequireCapability(model.CapabilityNotifyRole),
				notificationHandler.NotifyRole,
			)
		}
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
