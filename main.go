package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"rbac-admin/bootstrap"
	"rbac-admin/common"
	"rbac-admin/config"
	"rbac-admin/database"
	"rbac-admin/domain"
	"rbac-admin/middleware"
	accessUC "rbac-admin/modules/access/usecase"
	authAPI "rbac-admin/modules/auth/delivery/api"
	authRepo "rbac-admin/modules/auth/repository"
	authUC "rbac-admin/modules/auth/usecase"
	mediaRepo "rbac-admin/modules/media/repository"
	mediaUC "rbac-admin/modules/media/usecase"
	notificationUC "rbac-admin/modules/notification/usecase"
	permissionAPI "rbac-admin/modules/permission/delivery/api"
	permissionRepo "rbac-admin/modules/permission/repository"
	permissionUC "rbac-admin/modules/permission/usecase"
	roleAPI "rbac-admin/modules/role/delivery/api"
	roleRepo "rbac-admin/modules/role/repository"
	roleUC "rbac-admin/modules/role/usecase"
	tokenAPI "rbac-admin/modules/token/delivery/api"
	tokenRepo "rbac-admin/modules/token/repository"
	tokenUC "rbac-admin/modules/token/usecase"
	userAPI "rbac-admin/modules/user/delivery/api"
	userRepo "rbac-admin/modules/user/repository"
	userUC "rbac-admin/modules/user/usecase"
	"rbac-admin/pkg/cache"
	"rbac-admin/pkg/email"
	"rbac-admin/pkg/log"
	"rbac-admin/pkg/media"
	"rbac-admin/validator"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"gorm.io/gorm"
)

func main() {
	// Parse command line flags
	envPath := flag.String("env-file", "", "ENV config file path")
	yamlPath := flag.String("config", "./config/config.yml", "YAML config file path")
	flag.Parse()

	configPaths := []string{*yamlPath}
	if *envPath == "" {
		fmt.Printf("App is starting with config path is '%s' and no load env file\n", *yamlPath)
	} else {
		fmt.Printf("App is starting with config path is '%s' and env path is '%s'...\n", *yamlPath, *envPath)
		configPaths = append(configPaths, *envPath)
	}

	cfg, err := config.Load(configPaths...)
	if err != nil {
		panic(fmt.Errorf("failed to load config: %w", err))
	}

	if err = config.Validate(cfg); err != nil {
		panic(fmt.Errorf("invalid config: %w", err))
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic(fmt.Errorf("failed to create logger: %w", err))
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Printf("Failed to sync logger: %v\n", err)
		}
	}()

	// Set logger for common package using adapter and as default logger
	loggerAdapter := common.NewLoggerAdapter(logger)
	common.SetLogger(loggerAdapter)
	log.SetDefault(logger)

	logger.Info("Application starting",
		log.String("name", cfg.App().Name()),
		log.String("version", cfg.App().Version()),
		log.String("environment", cfg.App().Environment()),
		log.String("config_path", *yamlPath),
	)

	guards := domain.GuardSet(cfg.RBAC().Guards())
	validator.RegisterValidatorWithGin(guards)

	metrics := common.NewMetrics("rbac_admin")
	metrics.Registerer().MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	common.SetMetrics(metrics)

	db, err := database.Connect(cfg.Database(), logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", log.Error(err))
	}

	if err = database.MigrateDB(db); err != nil {
		logger.Fatal("Failed to migrate database", log.Error(err))
	}

	logger.Info("Database connected and migrated successfully", log.String("driver", cfg.Database().Driver()))

	cacheClient, err := cache.NewClient(cache.Provider(cfg.Cache().Provider()), &cache.Config{
		Host:       cfg.Redis().Host(),
		Port:       cfg.Redis().Port(),
		Password:   cfg.Redis().Password(),
		DB:         cfg.Redis().DB(),
		DefaultTTL: cfg.Cache().DefaultTTL(),
		MaxSize:    cfg.Cache().MaxSize(),
	}, loggerAdapter)
	if err != nil {
		logger.Fatal("Failed to create cache", log.String("provider", cfg.Cache().Provider()), log.Error(err))
	}
	defer cacheClient.Close()

	mediaClient, err := media.New(media.Provider(cfg.Media().Provider()), &media.Config{
		LocalDir:      cfg.Media().LocalDir(),
		PublicURL:     cfg.Media().PublicURL(),
		S3AccessKey:   cfg.Media().S3AccessKey(),
		S3SecretKey:   cfg.Media().S3SecretKey(),
		S3EndpointURL: cfg.Media().S3EndpointURL(),
		S3BucketName:  cfg.Media().S3BucketName(),
		S3PathPrefix:  cfg.Media().S3PathPrefix(),
		S3Region:      cfg.Media().S3Region(),
	})
	if err != nil {
		logger.Fatal("Failed to create media storage", log.Error(err))
	}

	emailClient, err := email.New(context.Background(), &email.Config{
		Provider:            cfg.Email().Provider(),
		DefaultFrom:         cfg.Email().From(),
		FromName:            cfg.Email().FromName(),
		SESRegion:           cfg.Email().SESRegion(),
		SESAccessKey:        cfg.Email().SESAccessKey(),
		SESSecretKey:        cfg.Email().SESSecretKey(),
		SESConfigurationSet: cfg.Email().SESConfigurationSet(),
		SendGridAPIKey:      cfg.Email().SendGridAPIKey(),
	}, loggerAdapter)
	if err != nil {
		logger.Fatal("Failed to create email client", log.Error(err))
	}
	defer emailClient.Close()

	corePermissions := cfg.RBAC().CorePermissions()
	if len(corePermissions) == 0 {
		corePermissions = domain.DefaultCorePermissions()
	}
	coreRoles := cfg.RBAC().CoreRoles()
	if len(coreRoles) == 0 {
		coreRoles = domain.DefaultCoreRoles()
	}
	protected := domain.NewProtectedNames(corePermissions, coreRoles)

	// Initialize repositories
	userRepository := userRepo.NewUserRepository(db)
	roleRepository := roleRepo.NewRoleRepository(db)
	permissionRepository := permissionRepo.NewPermissionRepository(db)
	sessionRepository := authRepo.NewUserSessionRepository(db)
	mediaRepository := mediaRepo.NewMediaRepository(db)
	tokenRepository := tokenRepo.NewTokenRepository(db)

	bcryptHasher := common.NewBcryptHasher(cfg.App().BcryptCost())
	jwtProvider := common.NewJWTProvider(cfg.App())

	accessUsecase := accessUC.NewAccessUsecase(userRepository, cacheClient, cfg.Cache().PermissionTTL(), logger)

	seeder := bootstrap.NewSeeder(permissionRepository, roleRepository, userRepository, bcryptHasher, accessUsecase, bootstrap.SeedConfig{
		Guards:             guards,
		CorePermissions:    corePermissions,
		CoreRoles:          coreRoles,
		SuperAdminName:     cfg.RBAC().SuperAdminName(),
		SuperAdminEmail:    cfg.RBAC().SuperAdminEmail(),
		SuperAdminPassword: cfg.RBAC().SuperAdminPassword(),
	}, logger)
	if err := seeder.Seed(context.Background()); err != nil {
		logger.Fatal("Failed to seed roles and permissions", log.Error(err))
	}

	notifier, err := notificationUC.NewNotificationUsecase(emailClient, notificationUC.Config{
		AppName:  cfg.App().Name(),
		From:     cfg.Email().From(),
		LoginURL: cfg.App().LoginURL(),
	}, logger)
	if err != nil {
		logger.Fatal("Failed to load email templates", log.Error(err))
	}

	mediaUsecase := mediaUC.NewMediaUsecase(mediaRepository, mediaClient, mediaUC.DefaultCollections(), cfg.Media().PlaceholderURL(), logger)
	permissionUsecase := permissionUC.NewPermissionUsecase(permissionRepository, guards, protected, accessUsecase, logger)
	roleUsecase := roleUC.NewRoleUsecase(roleRepository, guards, protected, accessUsecase, logger)
	userUsecase := userUC.NewUserUsecase(userRepository, bcryptHasher, mediaUsecase, notifier, accessUsecase, sessionRepository, logger)
	tokenUsecase := tokenUC.NewTokenUsecase(tokenRepository, mediaUsecase, logger)
	authUsecase := authUC.NewAuthUsecase(sessionRepository, userRepository, jwtProvider, bcryptHasher, logger)

	// Start gRPC server
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(common.UnaryErrorInterceptor()))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	go func() {
		rpcAddr := fmt.Sprintf("%s:%d", cfg.RPC().Host(), cfg.RPC().Port())
		lis, err := net.Listen("tcp", rpcAddr)
		if err != nil {
			logger.Fatal("Failed to listen on RPC port",
				log.Int("port", cfg.RPC().Port()),
				log.Error(err),
			)
		}

		logger.Info("Starting gRPC server",
			log.String("address", rpcAddr),
			log.Int("port", cfg.RPC().Port()),
		)

		if err := grpcServer.Serve(lis); err != nil {
			logger.Fatal("Failed to serve gRPC server", log.Error(err))
		}
	}()

	middlewares := middleware.NewMiddlewares(middleware.Dependencies{
		Cache:       cacheClient,
		Logger:      logger,
		JwtProvider: jwtProvider,
		SessionRepo: sessionRepository,
		UserRepo:    userRepository,
		Access:      accessUsecase,
		CORS: middleware.CORSConfig{
			AllowOrigins:     cfg.Server().AllowedOrigins(),
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		},
		Secure: middleware.SecureConfig{
			IsDevelopment: !cfg.App().IsProduction(),
			SSLRedirect:   cfg.Server().SSLRedirect(),
			STSSeconds:    cfg.Server().STSSeconds(),
		},
		RateLimits: middleware.RateLimits{
			LoginMaxRequests: int64(cfg.RateLimit().LoginMaxRequests()),
			LoginWindow:      cfg.RateLimit().LoginWindow(),
			APIMaxRequests:   int64(cfg.RateLimit().APIMaxRequests()),
			APIWindow:        cfg.RateLimit().APIWindow(),
		},
	})

	// Disable Gin's default logger and recovery
	gin.DisableConsoleColor()
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(middlewares.RequestID())
	r.Use(middlewares.Recovery())
	r.Use(middlewares.LoggingMiddleware())
	r.Use(metrics.Middleware())
	r.Use(middlewares.CORS())
	r.Use(middlewares.SecureHeaders())

	apiGroup := r.Group("/api/v1")
	authAPI.NewAuthHandler(authUsecase, accessUsecase, middlewares).RegisterRoutes(apiGroup)
	userAPI.NewUserHandler(userUsecase, middlewares).RegisterRoutes(apiGroup)
	roleAPI.NewRoleHandler(roleUsecase, middlewares).RegisterRoutes(apiGroup)
	permissionAPI.NewPermissionHandler(permissionUsecase, middlewares).RegisterRoutes(apiGroup)
	tokenAPI.NewTokenHandler(tokenUsecase, middlewares).RegisterRoutes(apiGroup)

	r.GET("/health", healthHandler(db, cacheClient))
	r.GET("/metrics", metrics.Handler())
	if media.Provider(cfg.Media().Provider()) == media.Local {
		r.Static("/uploads", cfg.Media().LocalDir())
	}

	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server().Host(), cfg.Server().Port()),
		Handler:        r,
		ReadTimeout:    cfg.Server().ReadTimeout(),
		WriteTimeout:   cfg.Server().WriteTimeout(),
		IdleTimeout:    cfg.Server().IdleTimeout(),
		MaxHeaderBytes: cfg.Server().MaxHeaderBytes(),
	}

	go func() {
		logger.Info("Starting HTTP server",
			log.Int("port", cfg.Server().Port()),
			log.String("host", cfg.Server().Host()),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", log.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	healthServer.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", log.Error(err))
	} else {
		logger.Info("Server exited gracefully")
	}
	grpcServer.GracefulStop()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// newLogger builds a console logger outside production and a sampled json
// logger in production. Both write to the rotated log file when one is set.
func newLogger(cfg config.Config) (log.Logger, error) {
	logCfg := log.ForEnvironment(cfg.App().Name(), cfg.App().Version(), cfg.App().Environment())
	logCfg.Level = cfg.Logger().LogLevel()

	if cfg.Logger().LogFilePath() != "" {
		logCfg.File = &log.FileConfig{
			Path:       filepath.Join(cfg.Logger().LogFilePath(), cfg.Logger().LogFileName()+cfg.Logger().FileExtension()),
			MaxSizeMB:  cfg.Logger().MaxFileSizeMB(),
			MaxAgeDays: cfg.Logger().MaxFileAgeDays(),
			MaxBackups: cfg.Logger().MaxBackupFiles(),
			Compress:   cfg.Logger().IsCompressEnabled(),
		}
	}
	return log.New(logCfg)
}

type healthStatus struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp int64             `json:"timestamp"`
}

func healthHandler(db *gorm.DB, cacheClient cache.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{"database": "ok", "cache": "ok"}
		healthy := true
		if sqlDB, err := db.DB(); err != nil {
			checks["database"] = err.Error()
			healthy = false
		} else if err := sqlDB.PingContext(ctx); err != nil {
			checks["database"] = err.Error()
			healthy = false
		}
		if err := cacheClient.Ping(ctx); err != nil {
			checks["cache"] = err.Error()
			healthy = false
		}

		status := healthStatus{Status: "ok", Checks: checks, Timestamp: time.Now().Unix()}
		if !healthy {
			status.Status = "degraded"
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}
