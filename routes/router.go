package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/praxxy/backoffice/attachments"
	"github.com/praxxy/backoffice/config"
	"github.com/praxxy/backoffice/controllers"
	"github.com/praxxy/backoffice/dashboard"
	"github.com/praxxy/backoffice/middleware"
	"github.com/praxxy/backoffice/session"
	"github.com/praxxy/backoffice/storage"
	"github.com/praxxy/backoffice/utils"
	"github.com/praxxy/backoffice/validation"
	"github.com/praxxy/backoffice/web"
)

// Deps are the long-lived services the handlers share.
type Deps struct {
	DB         *gorm.DB
	Blobs      storage.BlobStore
	Sessions   session.Store
	Reconciler *attachments.Reconciler
	Aggregator *dashboard.Aggregator
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, deps Deps) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file; without one it shares the app logger
	accessLog := utils.Logger
	if cfg.GinPath != "" {
		gl, err := utils.NewRollingFileLogger(utils.RollingFile{
			Path:       cfg.GinPath,
			MaxSizeMB:  cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			MaxAgeDays: cfg.LogMaxAgeDays,
			Compress:   cfg.LogCompress,
		}, cfg.LogLevel)
		if err == nil {
			accessLog = gl
		} else {
			utils.Sugar.Warnf("gin access log disabled: %v", err)
		}
	}
	r.Use(utils.Ginzap(accessLog, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(accessLog, false))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Inertia", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "X-Inertia"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		// credentials with a wildcard are rejected by browsers; reflect the origin instead
		corsCfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	validation.Setup()
	r.SetHTMLTemplate(web.Templates())

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	storageController := controllers.NewStorageController(deps.Blobs)
	r.GET(strings.TrimSuffix(storage.URLPrefix, "/")+"/*path", storageController.Serve)

	app := r.Group("")
	app.Use(
		session.Middleware(deps.Sessions, session.Options{
			CookieName: cfg.SessionCookie,
			Secret:     cfg.AppKey,
			Lifetime:   time.Duration(cfg.SessionLifetimeMinutes) * time.Minute,
			Secure:     cfg.SessionSecure,
		}, utils.Logger),
		middleware.SessionActivityRecorder(deps.DB),
		middleware.LocationTracking(),
	)

	authController := controllers.NewAuthController(deps.DB)
	productController := controllers.NewProductController(deps.DB, deps.Reconciler)
	videoController := controllers.NewVideoController(deps.DB, deps.Reconciler)
	userController := controllers.NewUserController(deps.DB)
	dashboardController := controllers.NewDashboardController(deps.Aggregator)
	locationController := controllers.NewLocationController()
	sidebarController := controllers.NewSidebarController(deps.DB)

	guest := app.Group("")
	guest.Use(middleware.GuestOnly())
	guest.GET(middleware.LoginPath, authController.LoginPage)
	guest.POST(middleware.LoginPath, middleware.RateLimitMiddleware(cfg.RateLimitPerMinute), authController.Login)

	protected := app.Group("")
	protected.Use(middleware.AuthRequired(deps.DB))

	protected.POST("/logout", authController.Logout)
	protected.GET("/", func(ctx *gin.Context) {
		ctx.Redirect(http.StatusFound, middleware.HomePath)
	})
	protected.GET(middleware.HomePath, dashboardController.Show)

	protected.POST("/location", locationController.Update)
	protected.GET("/location", locationController.Show)

	protected.GET("/products", productController.ListProducts)
	protected.POST("/products", productController.CreateProduct)
	protected.PUT("/products/:id", productController.UpdateProduct)
	protected.DELETE("/products/:id", productController.DeleteProduct)

	protected.GET("/videos", videoController.ListVideos)
	protected.POST("/videos", videoController.CreateVideo)
	protected.PUT("/videos/:id", videoController.UpdateVideo)
	protected.DELETE("/videos/:id", videoController.DeleteVideo)

	protected.GET("/users", userController.ListUsers)
	protected.POST("/users", userController.CreateUser)
	protected.GET("/users/:id", userController.GetUser)
	protected.PUT("/users/:id", userController.UpdateUser)
	protected.DELETE("/users/:id", userController.DeleteUser)

	protected.GET("/product-management", sidebarController.ProductManagement)
	protected.GET(controllers.VideoManagementPath, sidebarController.VideoManagement)
	protected.GET("/user-management", sidebarController.UserManagement)

	r.NoRoute(func(ctx *gin.Context) {
		if utils.WantsJSON(ctx) {
			utils.Error(ctx, http.StatusNotFound, utils.CodeNotFound, "route not found")
			return
		}
		ctx.String(http.StatusNotFound, "404 page not found")
	})

	return r
}
