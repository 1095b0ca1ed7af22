package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/d60-Lab/ideahub/docs"
	"github.com/d60-Lab/ideahub/internal/api/handler"
	"github.com/d60-Lab/ideahub/internal/api/middleware"
	"github.com/d60-Lab/ideahub/internal/devserver"
)

type Config struct {
	ServiceName string
	CORSOrigins []string
	Handler     *handler.Handler
	Auth        *devserver.Auth
}

// New builds the dev server engine. Every API route lives under /api.
func New(cfg Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	h := cfg.Handler
	r.GET("/healthz", h.Health)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	{
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
		api.GET("/ideas", h.ListIdeas)
		api.GET("/ideas/:id", h.GetIdea)
		api.GET("/ideas/:id/comments", h.ListComments)
	}

	protected := api.Group("")
	protected.Use(middleware.RequireAuth(cfg.Auth))
	{
		protected.GET("/auth/me", h.Me)
		protected.PUT("/auth/me", h.UpdateMe)
		protected.POST("/ideas", h.CreateIdea)
		protected.PUT("/ideas/:id", h.UpdateIdea)
		protected.DELETE("/ideas/:id", h.DeleteIdea)
		protected.POST("/ideas/:id/rate", h.RateIdea)
		protected.GET("/ideas/:id/has-rated", h.HasRated)
		protected.POST("/ideas/:id/comments", h.AddComment)
	}
	return r
}
