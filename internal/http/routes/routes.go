package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/masscrop/internal/http/handlers"
	"github.com/phambaophuc/masscrop/internal/http/middleware"
	"go.uber.org/zap"
)

type Router struct {
	sessionHandler *handlers.SessionHandler
	logger         *zap.Logger
	maxUploadBytes int64
}

// NewRouter builds the router. maxUploadBytes caps one upload request body;
// zero disables the cap.
func NewRouter(
	sessionHandler *handlers.SessionHandler,
	logger *zap.Logger,
	maxUploadBytes int64,
) *Router {
	return &Router{
		sessionHandler: sessionHandler,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())

	h := r.sessionHandler

	// API version 1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", h.HealthCheck)
		v1.GET("/aspect-ratios", h.AspectRatios)

		v1.POST("/sessions", h.CreateSession)

		sessions := v1.Group("/sessions/:id")
		{
			sessions.GET("", h.GetSession)
			sessions.DELETE("", h.DeleteSession)
			sessions.PUT("/settings", h.UpdateSettings)

			sessions.POST("/items", middleware.RequireMultipart(r.maxUploadBytes), h.AddItems)
			sessions.DELETE("/items", h.ClearItems)
			sessions.DELETE("/items/:item", h.RemoveItem)
			sessions.POST("/items/:item/select", h.SelectItem)
			sessions.PUT("/items/:item/crop", h.SetCrop)
			sessions.POST("/items/:item/broadcast", h.Broadcast)
			sessions.GET("/items/:item/preview", h.Preview)
			sessions.GET("/items/:item/output", h.Output)

			sessions.POST("/gesture/start", h.StartGesture)
			sessions.POST("/gesture/move", h.MoveGesture)
			sessions.POST("/gesture/end", h.EndGesture)

			sessions.POST("/process", h.Process)
			sessions.GET("/download", h.Download)
			sessions.POST("/export", h.Export)
		}
	}

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Mass crop is running",
		})
	})

	return router
}
