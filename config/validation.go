package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Validate validates the configuration
func Validate(cfg Config) error {
	if err := validateApp(cfg.App()); err != nil {
		return fmt.Errorf("app config validation failed: %w", err)
	}

	if err := validateServer(cfg.Server()); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	if err := validateDatabase(cfg.Database()); err != nil {
		return fmt.Errorf("database config validation failed: %w", err)
	}

	if cfg.Cache().Provider() == "redis" {
		if err := validateRedis(cfg.Redis()); err != nil {
			return fmt.Errorf("redis config validation failed: %w", err)
		}
	}

	if err := validateCache(cfg.Cache()); err != nil {
		return fmt.Errorf("cache config validation failed: %w", err)
	}

	if err := validateLogger(cfg.Logger()); err != nil {
		return fmt.Errorf("logger config validation failed: %w", err)
	}

	if err := validateMedia(cfg.Media()); err != nil {
		return fmt.Errorf("media config validation failed: %w", err)
	}

	if err := validateEmail(cfg.Email()); err != nil {
		return fmt.Errorf("email config validation failed: %w", err)
	}

	if err := validateRBAC(cfg.RBAC()); err != nil {
		return fmt.Errorf("rbac config validation failed: %w", err)
	}

	if err := validateRateLimit(cfg.RateLimit()); err != nil {
		return fmt.Errorf("rate limit config validation failed: %w", err)
	}

	if err := validateRPC(cfg.RPC()); err != nil {
		return fmt.Errorf("rpc config validation failed: %w", err)
	}
	return nil
}

func validateApp(cfg AppConfig) error {
	switch cfg.Environment() {
	case LocalEnv, DevelopmentEnv, ProductionEnv:
	default:
		return fmt.Errorf("ENV=%s is invalid, only accept `%s`, `%s`, `%s`", cfg.Environment(), LocalEnv, DevelopmentEnv, ProductionEnv)
	}

	if cfg.TokenIssuer() == "" {
		return fmt.Errorf("token_issuer is required")
	}

	if cfg.AccessTokenExpiresIn() <= 0 {
		return fmt.Errorf("access_token_expires_in must be positive")
	}

	if cfg.RefreshTokenExpiresIn() <= 0 {
		return fmt.Errorf("refresh_token_expires_in must be positive")
	}

	if cfg.AccessTokenExpiresIn() >= cfg.RefreshTokenExpiresIn() {
		return fmt.Errorf("access_token_expires_in must be less than refresh_token_expires_in")
	}

	if cfg.AccessTokenSecret() == "" {
		return fmt.Errorf("access token secret is required, please set ACCESS_TOKEN_SECRET env variable")
	}

	if cfg.BcryptCost() < 4 || cfg.BcryptCost() > 31 {
		return fmt.Errorf("bcrypt_cost must be between 4 and 31")
	}

	if cfg.LoginURL() != "" && !isHTTPURL(cfg.LoginURL()) {
		return fmt.Errorf("login_url must be an http(s) URL")
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if err := validateHost(cfg.Host()); err != nil {
		return err
	}

	if cfg.Port() <= 0 || cfg.Port() > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	if cfg.ReadTimeout() <= 0 {
		return fmt.Errorf("read_timeout must be positive")
	}

	if cfg.WriteTimeout() <= 0 {
		return fmt.Errorf("write_timeout must be positive")
	}

	for _, origin := range cfg.AllowedOrigins() {
		if origin != "*" && !isHTTPURL(origin) {
			return fmt.Errorf("allowed origin %q must be '*' or start with http:// or https://", origin)
		}
	}

	if cfg.STSSeconds() < 0 {
		return fmt.Errorf("sts_seconds cannot be negative")
	}

	return nil
}

func validateDatabase(cfg DatabaseConfig) error {
	switch cfg.Driver() {
	case "sqlite":
		if cfg.Name() == "" {
			return fmt.Errorf("database name (sqlite file path) is required")
		}
		return validateDBLogLevel(cfg)
	case "postgres":
	default:
		return fmt.Errorf("database driver must be 'postgres' or 'sqlite'")
	}

	if cfg.Host() == "" {
		return fmt.Errorf("database host is required")
	}

	if port, err := strconv.Atoi(cfg.Port()); err != nil {
		return fmt.Errorf("database port must be numeric: %w", err)
	} else if port <= 0 || port > 65535 {
		return fmt.Errorf("database port must be between 1 and 65535")
	}

	if cfg.User() == "" {
		return fmt.Errorf("database user is required")
	}

	if cfg.Name() == "" {
		return fmt.Errorf("database name is required")
	}

	if cfg.MaxOpenConns() <= 0 {
		return fmt.Errorf("max_open_conns must be positive")
	}

	if cfg.MaxIdleConns() <= 0 {
		return fmt.Errorf("max_idle_conns must be positive")
	}

	if cfg.MaxIdleConns() > cfg.MaxOpenConns() {
		return fmt.Errorf("max_idle_conns cannot be greater than max_open_conns")
	}

	if cfg.ConnMaxLifetime() <= 0 {
		return fmt.Errorf("conn_max_lifetime must be positive")
	}

	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !lo.Contains(validSSLModes, cfg.SSLMode()) {
		return fmt.Errorf("ssl_mode must be one of: %s", strings.Join(validSSLModes, ", "))
	}

	return validateDBLogLevel(cfg)
}

func validateDBLogLevel(cfg DatabaseConfig) error {
	if !cfg.EnableLog() {
		return nil
	}
	validLogLevels := []string{"silent", "error", "warn", "info"}
	if !lo.Contains(validLogLevels, cfg.LogLevel()) {
		return fmt.Errorf("database log_level must be one of: %s", strings.Join(validLogLevels, ", "))
	}
	return nil
}

func validateRedis(cfg RedisConfig) error {
	if cfg.Host() == "" {
		return fmt.Errorf("redis host is required")
	}

	if cfg.Port() <= 0 || cfg.Port() > 65535 {
		return fmt.Errorf("redis port must be between 1 and 65535")
	}

	if cfg.DB() < 0 || cfg.DB() > 15 {
		return fmt.Errorf("redis db must be between 0 and 15")
	}

	return nil
}

func validateCache(cfg CacheConfig) error {
	validProviders := []string{"redis", "memory"}
	if !lo.Contains(validProviders, cfg.Provider()) {
		return fmt.Errorf("cache provider must be one of: %s", strings.Join(validProviders, ", "))
	}

	if cfg.DefaultTTL() <= 0 {
		return fmt.Errorf("default_ttl must be positive")
	}

	if cfg.PermissionTTL() <= 0 {
		return fmt.Errorf("permission_ttl must be positive")
	}

	if cfg.Provider() == "memory" && cfg.MaxSize() <= 0 {
		return fmt.Errorf("max_size must be positive for the memory cache")
	}

	return nil
}

func validateLogger(cfg LoggerConfig) error {
	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !lo.Contains(validLevels, cfg.LogLevel()) {
		return fmt.Errorf("log_level must be one of: %s", strings.Join(validLevels, ", "))
	}

	// File output is optional
	if cfg.LogFilePath() == "" {
		return nil
	}

	if err := os.MkdirAll(cfg.LogFilePath(), 0755); err != nil {
		return fmt.Errorf("cannot create log directory: %w", err)
	}

	if cfg.LogFileName() == "" {
		return fmt.Errorf("log_file_name is required when log_file_path is set")
	}

	if cfg.MaxFileSizeMB() <= 0 {
		return fmt.Errorf("max_file_size_mb must be positive")
	}

	if cfg.MaxFileAgeDays() <= 0 {
		return fmt.Errorf("max_file_age_days must be positive")
	}

	if cfg.MaxBackupFiles() < 0 {
		return fmt.Errorf("max_backup_files cannot be negative")
	}

	return nil
}

func validateMedia(cfg MediaConfig) error {
	if cfg.PlaceholderURL() != "" && !isHTTPURL(cfg.PlaceholderURL()) {
		return fmt.Errorf("placeholder_url must be an http(s) URL")
	}

	switch cfg.Provider() {
	case "local":
		if cfg.LocalDir() == "" {
			return fmt.Errorf("local_dir is required when provider is 'local'")
		}
		if err := os.MkdirAll(cfg.LocalDir(), 0755); err != nil {
			return fmt.Errorf("cannot create local media directory: %w", err)
		}
	case "s3":
		if cfg.S3BucketName() == "" {
			return fmt.Errorf("s3_bucket_name is required when provider is 's3'")
		}
		if cfg.S3Region() == "" {
			return fmt.Errorf("s3_region is required when provider is 's3'")
		}
		if cfg.S3AccessKey() == "" || cfg.S3SecretKey() == "" {
			return fmt.Errorf("s3 credentials are required, please set MEDIA_S3_ACCESS_KEY and MEDIA_S3_SECRET_KEY env variables")
		}
		if cfg.S3EndpointURL() != "" && !isHTTPURL(cfg.S3EndpointURL()) {
			return fmt.Errorf("s3 endpoint_url must start with http:// or https://")
		}
	default:
		return fmt.Errorf("media provider must be 's3' or 'local'")
	}

	return nil
}

func validateEmail(cfg EmailConfig) error {
	switch cfg.Provider() {
	case "mock":
	case "ses":
		if cfg.SESAccessKey() == "" || cfg.SESSecretKey() == "" {
			return fmt.Errorf("ses credentials are required, please set EMAIL_SES_ACCESS_KEY and EMAIL_SES_SECRET_KEY env variables")
		}
	case "sendgrid":
		if cfg.SendGridAPIKey() == "" {
			return fmt.Errorf("sendgrid api key is required, please set EMAIL_SENDGRID_API_KEY env variable")
		}
	default:
		return fmt.Errorf("email provider must be one of: ses, sendgrid, mock")
	}

	if cfg.From() == "" {
		return fmt.Errorf("email from address is required")
	}
	return nil
}

func validateRBAC(cfg RBACConfig) error {
	if len(cfg.Guards()) == 0 {
		return fmt.Errorf("at least one guard is required")
	}
	for _, guard := range cfg.Guards() {
		if strings.TrimSpace(guard) == "" {
			return fmt.Errorf("guard names cannot be blank")
		}
	}
	if dup := lo.FindDuplicates(cfg.Guards()); len(dup) > 0 {
		return fmt.Errorf("duplicate guards: %s", strings.Join(dup, ", "))
	}

	// email and password are set together or not at all
	if (cfg.SuperAdminEmail() == "") != (cfg.SuperAdminPassword() == "") {
		return fmt.Errorf("SUPER_ADMIN_EMAIL and SUPER_ADMIN_PASSWORD must be set together")
	}
	if cfg.SuperAdminPassword() != "" && len(cfg.SuperAdminPassword()) < 8 {
		return fmt.Errorf("SUPER_ADMIN_PASSWORD must be at least 8 characters")
	}
	return nil
}

func validateRateLimit(cfg RateLimitConfig) error {
	if cfg.LoginMaxRequests() <= 0 || cfg.APIMaxRequests() <= 0 {
		return fmt.Errorf("max requests must be positive")
	}
	if cfg.LoginWindow() <= 0 || cfg.APIWindow() <= 0 {
		return fmt.Errorf("windows must be positive")
	}
	return nil
}

func validateRPC(cfg RPCConfig) error {
	if err := validateHost(cfg.Host()); err != nil {
		return fmt.Errorf("rpc %w", err)
	}
	if cfg.Port() <= 0 || cfg.Port() > 65535 {
		return fmt.Errorf("rpc port must be between 1 and 65535")
	}
	return nil
}

func validateHost(host string) error {
	if host == "" {
		return fmt.Errorf("host is required")
	}
	if host != "0.0.0.0" && host != "localhost" && net.ParseIP(host) == nil {
		return fmt.Errorf("host must be a valid IP address or 'localhost'")
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
