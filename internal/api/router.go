package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Shreyas165/Find-My-Teacher/internal/api/handlers"
	"github.com/Shreyas165/Find-My-Teacher/internal/api/ws"
	"github.com/Shreyas165/Find-My-Teacher/internal/auth"
	"github.com/Shreyas165/Find-My-Teacher/internal/directory"
)

type RouterConfig struct {
	Directory *directory.Service
	Auth      *auth.Service
	Hub       *ws.Hub
	// Checks are reported by /readyz.
	Checks map[string]handlers.Check

	APIKey        string
	PublicURL     string
	CORSOrigins   []string
	Gzip          bool
	MaxImageBytes int64
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	if cfg.Gzip {
		// Image bytes are already compressed; the websocket must not be wrapped.
		r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{
			"/api/images/", "/api/teacher-image/", "/api/ws",
		})))
	}

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.Checks)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	admin := auth.RequireAdmin(cfg.Auth, cfg.APIKey)

	if cfg.Hub != nil {
		api.GET("/ws", cfg.Hub.HandleWS)
	}

	// Directory lookups
	teacherH := handlers.NewTeacherHandler(cfg.Directory, handlers.URLBuilder{PublicURL: cfg.PublicURL}, cfg.MaxImageBytes)
	api.GET("/people", teacherH.List)
	api.GET("/search", teacherH.Search)
	api.GET("/directions/:name", teacherH.Directions)
	api.GET("/teachers/:id", teacherH.Get)

	imageH := handlers.NewImageHandler(cfg.Directory)
	api.GET("/images/:id", imageH.Get)
	api.GET("/teacher-image/:name", imageH.ByName)

	// Directory administration
	api.POST("/add-teacher", admin, teacherH.Create)
	api.PUT("/update-teacher/:name", admin, teacherH.UpdateByName)
	api.DELETE("/delete-teacher/:name", admin, teacherH.DeleteByName)
	api.PUT("/teachers/:id", admin, teacherH.UpdateByID)
	api.DELETE("/teachers/:id", admin, teacherH.DeleteByID)

	// Credentials
	credH := handlers.NewCredentialHandler(cfg.Auth, cfg.APIKey)
	api.POST("/set-password", credH.SetPassword)
	api.POST("/verify-password", credH.Verify)
	api.PUT("/change-password", credH.ChangePassword)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-API-Key"},
		ExposeHeaders: []string{"Content-Length", "ETag"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
