package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/punjabready/portal-api/internal/config"
	"github.com/punjabready/portal-api/internal/entity"
	"github.com/punjabready/portal-api/internal/middleware"
	"github.com/punjabready/portal-api/pkg/broadcast"
	"github.com/punjabready/portal-api/pkg/logging"
	"github.com/punjabready/portal-api/pkg/metrics"
	"github.com/punjabready/portal-api/pkg/ratelimiter"
	"github.com/punjabready/portal-api/pkg/response"
	"github.com/punjabready/portal-api/pkg/storage"

	adminHttp "github.com/punjabready/portal-api/internal/modules/admin/delivery/http"
	adminService "github.com/punjabready/portal-api/internal/modules/admin/service"

	alertHttp "github.com/punjabready/portal-api/internal/modules/alert/delivery/http"
	alertRepo "github.com/punjabready/portal-api/internal/modules/alert/repository"
	alertService "github.com/punjabready/portal-api/internal/modules/alert/service"

	moduleHttp "github.com/punjabready/portal-api/internal/modules/edumodule/delivery/http"
	moduleRepo "github.com/punjabready/portal-api/internal/modules/edumodule/repository"
	moduleService "github.com/punjabready/portal-api/internal/modules/edumodule/service"

	healthHttp "github.com/punjabready/portal-api/internal/modules/health/delivery/http"

	mapHttp "github.com/punjabready/portal-api/internal/modules/mapdata/delivery/http"
	mapRepo "github.com/punjabready/portal-api/internal/modules/mapdata/repository"
	mapService "github.com/punjabready/portal-api/internal/modules/mapdata/service"

	profileHttp "github.com/punjabready/portal-api/internal/modules/profile/delivery/http"
	profileService "github.com/punjabready/portal-api/internal/modules/profile/service"

	reportHttp "github.com/punjabready/portal-api/internal/modules/report/delivery/http"
	reportRepo "github.com/punjabready/portal-api/internal/modules/report/repository"
	reportService "github.com/punjabready/portal-api/internal/modules/report/service"

	searchService "github.com/punjabready/portal-api/internal/modules/search/service"

	uploadHttp "github.com/punjabready/portal-api/internal/modules/upload/delivery/http"
	uploadService "github.com/punjabready/portal-api/internal/modules/upload/service"

	userHttp "github.com/punjabready/portal-api/internal/modules/user/delivery/http"
	userRepo "github.com/punjabready/portal-api/internal/modules/user/repository"
	userService "github.com/punjabready/portal-api/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	httpServer  *http.Server
	db          *gorm.DB
	redisClient *redis.Client
}

// NewServer wires every module onto one gin engine. redisClient may be nil,
// in which case rate limiting and the live alert feed stay in process.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, files storage.FileStorage) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	userRepo := userRepo.NewUserRepository(db)
	tokens := userService.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	authSvc := userService.NewAuthService(userRepo, tokens)
	authHandler := userHttp.NewAuthHandler(authSvc)

	profileSvc := profileService.NewProfileService(userRepo, tokens)
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	adminSvc := adminService.NewAdminService(userRepo)
	adminHandler := adminHttp.NewAdminHandler(adminSvc)

	reportSvc := reportService.NewReportService(reportRepo.NewReportRepository(db), userRepo, files)
	reportHandler := reportHttp.NewReportHandler(reportSvc)

	mapSvc := mapService.NewMapDataService(mapRepo.NewMapDataRepository(db))
	mapHandler := mapHttp.NewMapDataHandler(mapSvc)

	var moduleIndex searchService.ModuleIndex
	if cfg.MeiliSearchHost != "" {
		meiliHost := cfg.MeiliSearchHost
		if !strings.HasPrefix(meiliHost, "http") {
			meiliHost = "http://" + meiliHost + ":7700"
		}
		meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
		moduleIndex = searchService.NewMeiliModuleIndex(meiliClient)
	} else {
		logging.Warn().Msg("MEILISEARCH_HOST not set, module search uses the database")
	}

	moduleSvc := moduleService.NewModuleService(moduleRepo.NewModuleRepository(db), files, moduleIndex)
	moduleHandler := moduleHttp.NewModuleHandler(moduleSvc)

	alertFeed := broadcast.New(redisClient, alertService.Channel)
	alertSvc := alertService.NewAlertService(alertRepo.NewAlertRepository(db), alertFeed)
	alertHandler := alertHttp.NewAlertHandler(alertSvc, cfg.AllowedOrigins)

	uploadSvc := uploadService.NewUploadService(files)
	uploadHandler := uploadHttp.NewUploadHandler(uploadSvc)

	healthHandler := healthHttp.NewHealthHandler(cfg.AppEnv, databasePinger(db), redisPinger(redisClient))

	router := gin.New()

	router.Use(response.Debug(cfg.Debug))
	router.Use(middleware.Recovery())
	router.Use(logging.GinLogger("/api/health", "/metrics"))
	router.Use(metrics.Middleware())
	setupCORS(router, cfg.AllowedOrigins)

	if strings.EqualFold(cfg.Storage.Driver, "local") || cfg.Storage.Driver == "" {
		router.Static("/uploads", cfg.Storage.LocalDir)
	}
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	authMiddleware := middleware.NewAuthMiddleware(userRepo, cfg.JWTSecret)
	limiter := ratelimiter.New(redisClient, cfg.RateLimitRequests, cfg.RateLimitWindow)

	api := router.Group("/api")
	api.Use(middleware.RateLimit(limiter))

	api.GET("/health", healthHandler.Check)

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// Map and module reads are public; a token only widens what admins see.
	public := api.Group("")
	public.Use(authMiddleware.OptionalAuth())
	{
		public.GET("/map", mapHandler.GetMapData)
		public.GET("/map/bounds", mapHandler.GetMapDataInBounds)
		public.GET("/map/:id", mapHandler.GetMapDataByID)

		public.GET("/modules", moduleHandler.GetModules)
		public.GET("/modules/search", moduleHandler.SearchModules)
		public.GET("/modules/:id", moduleHandler.GetModule)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/auth/me", profileHandler.GetCurrentProfile)
		protected.PUT("/auth/profile", profileHandler.UpdateProfile)

		users := protected.Group("/users")
		users.Use(authMiddleware.RequireRoles(entity.RoleAdmin))
		{
			users.GET("", adminHandler.GetAllUsers)
			users.GET("/:id", adminHandler.GetUser)
			users.PUT("/:id", adminHandler.UpdateUser)
			users.DELETE("/:id", adminHandler.DeleteUser)
		}

		protected.GET("/reports", reportHandler.GetReports)
		protected.GET("/reports/stats",
			authMiddleware.RequireRoles(entity.RoleAdmin, entity.RoleModerator), reportHandler.GetStats)
		protected.GET("/reports/:id", reportHandler.GetReport)
		protected.POST("/reports", reportHandler.CreateReport)
		protected.PUT("/reports/:id", reportHandler.UpdateReport)
		protected.DELETE("/reports/:id", reportHandler.DeleteReport)

		protected.POST("/map", mapHandler.CreateMapData)
		protected.PUT("/map/:id", mapHandler.UpdateMapData)
		protected.DELETE("/map/:id", mapHandler.DeleteMapData)

		protected.POST("/modules", moduleHandler.CreateModule)
		protected.PUT("/modules/:id", moduleHandler.UpdateModule)
		protected.DELETE("/modules/:id", moduleHandler.DeleteModule)

		protected.POST("/upload/single", uploadHandler.UploadSingle)
		protected.POST("/upload/multiple", uploadHandler.UploadMultiple)
		protected.DELETE("/upload/:filename", uploadHandler.DeleteFile)

		protected.GET("/alerts", alertHandler.GetAlerts)
		protected.GET("/alerts/ws", alertHandler.Live)
		protected.GET("/alerts/:id", alertHandler.GetAlert)
		protected.POST("/alerts",
			authMiddleware.RequireRoles(entity.RoleAdmin, entity.RoleModerator), alertHandler.CreateAlert)
		protected.PUT("/alerts/:id", alertHandler.UpdateAlert)
		protected.DELETE("/alerts/:id", alertHandler.DeleteAlert)
	}

	router.NoRoute(middleware.NotFound())

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run blocks until the listener fails or Shutdown is called.
func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Info().Str("addr", addr).Msg("server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func databasePinger(db *gorm.DB) healthHttp.Pinger {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

func redisPinger(rdb *redis.Client) healthHttp.Pinger {
	if rdb == nil {
		return nil
	}
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", logging.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
