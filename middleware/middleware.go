package middleware

import (
	"rbac-admin/domain"
	"rbac-admin/pkg/cache"
	"rbac-admin/pkg/log"

	"github.com/gin-gonic/gin"
)

// Middlewares defines all available middleware methods
type Middlewares interface {
	// Rate limiting middlewares
	RateLimit(config ...RateLimitConfig) gin.HandlerFunc
	LoginRateLimit() gin.HandlerFunc
	APIRateLimit() gin.HandlerFunc

	// Logging middlewares
	LoggingMiddleware(config ...LoggerConfig) gin.HandlerFunc
	RequestID() gin.HandlerFunc
	Recovery() gin.HandlerFunc

	// Transport security middlewares
	CORS() gin.HandlerFunc
	SecureHeaders() gin.HandlerFunc

	// Authentication middlewares
	Authenticator() gin.HandlerFunc
	RequirePermissions(permissions ...string) gin.HandlerFunc
}

// Dependencies holds all dependencies needed by middlewares
type Dependencies struct {
	Cache       cache.Client
	Logger      log.Logger
	JwtProvider JwtProvider
	SessionRepo SessionRepository
	UserRepo    UserRepository
	Access      domain.AccessUsecase
	CORS        CORSConfig
	Secure      SecureConfig
	RateLimits  RateLimits
}

// NewMiddlewares creates a new instance of middlewares with dependencies
func NewMiddlewares(deps Dependencies) Middlewares {
	return &middlewares{
		cache:       deps.Cache,
		logger:      deps.Logger,
		jwtProvider: deps.JwtProvider,
		sessionRepo: deps.SessionRepo,
		userRepo:    deps.UserRepo,
		access:      deps.Access,
		corsConfig:  deps.CORS,
		secure:      newSecure(deps.Secure),
		rateLimits:  deps.RateLimits.withDefaults(),
	}
}

type middlewares struct {
	cache       cache.Client
	logger      log.Logger
	jwtProvider JwtProvider
	sessionRepo SessionRepository
	userRepo    UserRepository
	access      domain.AccessUsecase
	corsConfig  CORSConfig
	secure      secureProcessor
	rateLimits  RateLimits
}
