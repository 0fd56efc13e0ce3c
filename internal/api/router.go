package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/mentorship-backend/internal/application"
	appHttp "github.com/nekogravitycat/mentorship-backend/internal/application/http"
	"github.com/nekogravitycat/mentorship-backend/internal/auth"
	"github.com/nekogravitycat/mentorship-backend/internal/availability"
	availabilityHttp "github.com/nekogravitycat/mentorship-backend/internal/availability/http"
	"github.com/nekogravitycat/mentorship-backend/internal/category"
	categoryHttp "github.com/nekogravitycat/mentorship-backend/internal/category/http"
	"github.com/nekogravitycat/mentorship-backend/internal/course"
	courseHttp "github.com/nekogravitycat/mentorship-backend/internal/course/http"
	"github.com/nekogravitycat/mentorship-backend/internal/dashboard"
	dashboardHttp "github.com/nekogravitycat/mentorship-backend/internal/dashboard/http"
	"github.com/nekogravitycat/mentorship-backend/internal/file"
	fileHttp "github.com/nekogravitycat/mentorship-backend/internal/file/http"
	"github.com/nekogravitycat/mentorship-backend/internal/message"
	messageHttp "github.com/nekogravitycat/mentorship-backend/internal/message/http"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/request"
	"github.com/nekogravitycat/mentorship-backend/internal/resource"
	resourceHttp "github.com/nekogravitycat/mentorship-backend/internal/resource/http"
	"github.com/nekogravitycat/mentorship-backend/internal/session"
	sessionHttp "github.com/nekogravitycat/mentorship-backend/internal/session/http"
	"github.com/nekogravitycat/mentorship-backend/internal/user"
	userHttp "github.com/nekogravitycat/mentorship-backend/internal/user/http"
)

// Config holds the services the router exposes over HTTP.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	Logger       *zap.Logger

	UserService         user.Service
	FileService         file.Service
	CategoryService     category.Service
	CourseService       course.Service
	ResourceService     resource.Service
	AvailabilityService availability.Service
	SessionService      session.Service
	ApplicationService  application.Service
	MessageService      message.Service
	DashboardService    dashboard.Service
	JWTManager          *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) (*gin.Engine, error) {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := request.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()

	// Global Middleware:
	// - RequestLogger: one structured log line per request.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(RequestLogger(cfg.Logger), Recovery(cfg.Logger))

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction {
		corsConfig.AllowOrigins = splitOrigins(cfg.ProdOrigins)
		if len(corsConfig.AllowOrigins) == 0 {
			return nil, errors.New("PROD_ORIGINS must list at least one origin in production")
		}
	} else {
		corsConfig.AllowOrigins = []string{
			"http://localhost:3000", // Frontend dev server
			"http://localhost:8081", // Swagger
		}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "Accept"}
	r.Use(cors.New(corsConfig))

	// authMiddleware: Validates the JWT and loads the current user.
	authMiddleware := Authenticated(cfg.JWTManager, cfg.UserService)
	adminMiddleware := RequireRole(auth.RoleAdmin)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	fileHandler := fileHttp.NewHandler(cfg.FileService)
	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager, fileHandler, cfg.FileService, cfg.Logger)
	categoryHandler := categoryHttp.NewHandler(cfg.CategoryService)
	courseHandler := courseHttp.NewHandler(cfg.CourseService)
	resourceHandler := resourceHttp.NewHandler(cfg.ResourceService, fileHandler, cfg.FileService, cfg.Logger)
	availabilityHandler := availabilityHttp.NewHandler(cfg.AvailabilityService)
	sessionHandler := sessionHttp.NewHandler(cfg.SessionService)
	applicationHandler := appHttp.NewHandler(cfg.ApplicationService)
	messageHandler := messageHttp.NewHandler(cfg.MessageService)
	dashboardHandler := dashboardHttp.NewHandler(cfg.DashboardService)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware, adminMiddleware)
		fileHttp.RegisterRoutes(v1, fileHandler, authMiddleware)
		categoryHttp.RegisterRoutes(v1, categoryHandler, authMiddleware, adminMiddleware)
		courseHttp.RegisterRoutes(v1, courseHandler, authMiddleware)
		resourceHttp.RegisterRoutes(v1, resourceHandler, authMiddleware)
		availabilityHttp.RegisterRoutes(v1, availabilityHandler, authMiddleware)
		sessionHttp.RegisterRoutes(v1, sessionHandler, authMiddleware)
		appHttp.RegisterRoutes(v1, applicationHandler, authMiddleware, adminMiddleware)
		messageHttp.RegisterRoutes(v1, messageHandler, authMiddleware)
		dashboardHttp.RegisterRoutes(v1, dashboardHandler, authMiddleware, adminMiddleware)
	}

	return r, nil
}

func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
