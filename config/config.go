package config

import (
	"fmt"
	"time"
)

const (
	LocalEnv       = "local"
	DevelopmentEnv = "dev"
	ProductionEnv  = "prod"
)

type Config interface {
	App() AppConfig
	Server() ServerConfig
	Database() DatabaseConfig
	Redis() RedisConfig
	Cache() CacheConfig
	Logger() LoggerConfig
	Media() MediaConfig
	Email() EmailConfig
	RBAC() RBACConfig
	RateLimit() RateLimitConfig
	RPC() RPCConfig
}

type AppConfig interface {
	Name() string
	Version() string
	Environment() string
	IsProduction() bool
	AccessTokenExpiresIn() time.Duration
	AccessTokenSecret() string
	RefreshTokenExpiresIn() time.Duration
	TokenIssuer() string
	BcryptCost() int
	LoginURL() string
}

type ServerConfig interface {
	Host() string
	Port() int
	ReadTimeout() time.Duration
	WriteTimeout() time.Duration
	IdleTimeout() time.Duration
	MaxHeaderBytes() int
	AllowedOrigins() []string
	SSLRedirect() bool
	STSSeconds() int64
}

type DatabaseConfig interface {
	Driver() string
	Host() string
	Port() string
	User() string
	Password() string
	Name() string
	SSLMode() string
	MaxOpenConns() int
	MaxIdleConns() int
	ConnMaxLifetime() time.Duration
	LogLevel() string
	EnableLog() bool
}

type RedisConfig interface {
	Host() string
	Port() int
	Address() string
	Password() string
	DB() int
}

type CacheConfig interface {
	Provider() string
	DefaultTTL() time.Duration
	PermissionTTL() time.Duration
	MaxSize() int
}

type LoggerConfig interface {
	LogFilePath() string
	LogFileName() string
	LogLevel() string
	FileExtension() string
	MaxFileSizeMB() int
	MaxFileAgeDays() int
	MaxBackupFiles() int
	IsCompressEnabled() bool
}

type MediaConfig interface {
	Provider() string
	LocalDir() string
	PublicURL() string
	PlaceholderURL() string
	S3EndpointURL() string
	S3BucketName() string
	S3PathPrefix() string
	S3Region() string
	S3AccessKey() string
	S3SecretKey() string
}

type EmailConfig interface {
	Provider() string
	From() string
	FromName() string
	SESRegion() string
	SESAccessKey() string
	SESSecretKey() string
	SESConfigurationSet() string
	SendGridAPIKey() string
}

type RBACConfig interface {
	// Guards lists the known guards, the first one is the default guard.
	Guards() []string
	CorePermissions() []string
	CoreRoles() []string
	SuperAdminName() string
	SuperAdminEmail() string
	SuperAdminPassword() string
}

type RateLimitConfig interface {
	LoginMaxRequests() int
	LoginWindow() time.Duration
	APIMaxRequests() int
	APIWindow() time.Duration
}

type RPCConfig interface {
	Host() string
	Port() int
}

// config holds the actual configuration implementation
type config struct {
	AppCfg       appConfig       `yaml:"app"`
	ServerCfg    serverConfig    `yaml:"server"`
	DatabaseCfg  databaseConfig  `yaml:"database"`
	RedisCfg     redisConfig     `yaml:"redis"`
	CacheCfg     cacheConfig     `yaml:"cache"`
	LoggerCfg    loggerConfig    `yaml:"logger"`
	MediaCfg     mediaConfig     `yaml:"media"`
	EmailCfg     emailConfig     `yaml:"email"`
	RBACCfg      rbacConfig      `yaml:"rbac"`
	RateLimitCfg rateLimitConfig `yaml:"rate_limit"`
	RPCCfg       rpcConfig       `yaml:"rpc"`
}

func (c *config) App() AppConfig {
	return &c.AppCfg
}

func (c *config) Server() ServerConfig {
	return &c.ServerCfg
}

func (c *config) Database() DatabaseConfig {
	return &c.DatabaseCfg
}

func (c *config) Redis() RedisConfig {
	return &c.RedisCfg
}

func (c *config) Cache() CacheConfig {
	return &c.CacheCfg
}

func (c *config) Logger() LoggerConfig {
	return &c.LoggerCfg
}

func (c *config) Media() MediaConfig {
	return &c.MediaCfg
}

func (c *config) Email() EmailConfig {
	return &c.EmailCfg
}

func (c *config) RBAC() RBACConfig {
	return &c.RBACCfg
}

func (c *config) RateLimit() RateLimitConfig {
	return &c.RateLimitCfg
}

func (c *config) RPC() RPCConfig {
	return &c.RPCCfg
}

type appConfig struct {
	NameStr        string `yaml:"name" env-default:"rbac-admin"`
	VersionStr     string `yaml:"version"`
	EnvironmentStr string `env:"ENV" env-default:"local"`

	TokenIssuerStr string `yaml:"token_issuer"`

	AccessTokenExpiresInStr string `yaml:"access_token_expires_in" env-default:"15m"`
	AccessTokenSecretStr    string `env:"ACCESS_TOKEN_SECRET"`

	RefreshTokenExpiresInStr string `yaml:"refresh_token_expires_in" env-default:"720h"`

	BcryptCostInt int    `yaml:"bcrypt_cost" env-default:"10"`
	LoginURLStr   string `yaml:"login_url"`
}

func (c *appConfig) Name() string {
	return c.NameStr
}

func (c *appConfig) Version() string {
	return c.VersionStr
}

func (c *appConfig) Environment() string {
	return c.EnvironmentStr
}

func (c *appConfig) IsProduction() bool {
	return c.EnvironmentStr == ProductionEnv
}

func (c *appConfig) AccessTokenExpiresIn() time.Duration {
	duration, _ := time.ParseDuration(c.AccessTokenExpiresInStr)
	return duration
}

func (c *appConfig) AccessTokenSecret() string {
	return c.AccessTokenSecretStr
}

func (c *appConfig) RefreshTokenExpiresIn() time.Duration {
	duration, _ := time.ParseDuration(c.RefreshTokenExpiresInStr)
	return duration
}

func (c *appConfig) TokenIssuer() string {
	return c.TokenIssuerStr
}

func (c *appConfig) BcryptCost() int {
	return c.BcryptCostInt
}

func (c *appConfig) LoginURL() string {
	return c.LoginURLStr
}

type serverConfig struct {
	HostStr           string   `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	PortInt           int      `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	ReadTimeoutStr    string   `yaml:"read_timeout" env-default:"15s"`
	WriteTimeoutStr   string   `yaml:"write_timeout" env-default:"15s"`
	IdleTimeoutStr    string   `yaml:"idle_timeout" env-default:"120s"`
	MaxHeaderBytesInt int      `yaml:"max_header_bytes" env-default:"1048576"` // 1MB
	AllowedOriginsArr []string `yaml:"allowed_origins" env:"SERVER_ALLOWED_ORIGINS" env-separator:","`
	SSLRedirectBool   bool     `yaml:"ssl_redirect"`
	STSSecondsInt     int64    `yaml:"sts_seconds"`
}

func (s *serverConfig) Host() string {
	return s.HostStr
}

func (s *serverConfig) Port() int {
	return s.PortInt
}

func (s *serverConfig) ReadTimeout() time.Duration {
	duration, _ := time.ParseDuration(s.ReadTimeoutStr)
	return duration
}

func (s *serverConfig) WriteTimeout() time.Duration {
	duration, _ := time.ParseDuration(s.WriteTimeoutStr)
	return duration
}

func (s *serverConfig) IdleTimeout() time.Duration {
	duration, _ := time.ParseDuration(s.IdleTimeoutStr)
	return duration
}

func (s *serverConfig) MaxHeaderBytes() int {
	return s.MaxHeaderBytesInt
}

func (s *serverConfig) AllowedOrigins() []string {
	return s.AllowedOriginsArr
}

func (s *serverConfig) SSLRedirect() bool {
	return s.SSLRedirectBool
}

func (s *serverConfig) STSSeconds() int64 {
	return s.STSSecondsInt
}

type databaseConfig struct {
	DriverStr          string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	HostStr            string `env:"POSTGRES_HOST" env-default:"localhost"`
	PortStr            string `env:"POSTGRES_PORT" env-default:"5432"`
	UserStr            string `env:"POSTGRES_USER" env-default:"postgres"`
	PasswordStr        string `env:"POSTGRES_PASSWORD" env-default:"postgres"`
	NameStr            string `yaml:"name" env:"POSTGRES_DBNAME" env-default:"postgres"`
	SSLModeStr         string `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	MaxOpenConnsInt    int    `yaml:"max_open_conns" env-default:"25"`
	MaxIdleConnsInt    int    `yaml:"max_idle_conns" env-default:"10"`
	ConnMaxLifetimeStr string `yaml:"conn_max_lifetime" env-default:"5m"`
	EnableLoggingBool  bool   `yaml:"enable_logging" env-default:"false"`
	LogLevelStr        string `yaml:"log_level" env-default:"warn"`
}

func (d *databaseConfig) Driver() string {
	return d.DriverStr
}

func (d *databaseConfig) Host() string {
	return d.HostStr
}

func (d *databaseConfig) Port() string {
	return d.PortStr
}

func (d *databaseConfig) User() string {
	return d.UserStr
}

func (d *databaseConfig) Password() string {
	return d.PasswordStr
}

// Name is the database name, or the file path when the driver is sqlite.
func (d *databaseConfig) Name() string {
	return d.NameStr
}

func (d *databaseConfig) SSLMode() string {
	return d.SSLModeStr
}

func (d *databaseConfig) MaxOpenConns() int {
	return d.MaxOpenConnsInt
}

func (d *databaseConfig) MaxIdleConns() int {
	return d.MaxIdleConnsInt
}

func (d *databaseConfig) ConnMaxLifetime() time.Duration {
	duration, _ := time.ParseDuration(d.ConnMaxLifetimeStr)
	return duration
}

func (d *databaseConfig) EnableLog() bool {
	return d.EnableLoggingBool
}

func (d *databaseConfig) LogLevel() string {
	return d.LogLevelStr
}

type redisConfig struct {
	HostStr     string `env:"REDIS_HOST" env-default:"localhost"`
	PortInt     int    `env:"REDIS_PORT" env-default:"6379"`
	PasswordStr string `env:"REDIS_PASSWORD"`
	DBInt       int    `env:"REDIS_DB" env-default:"0"`
}

func (r *redisConfig) Host() string {
	return r.HostStr
}

func (r *redisConfig) Port() int {
	return r.PortInt
}

func (r *redisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host(), r.Port())
}

func (r *redisConfig) Password() string {
	return r.PasswordStr
}

func (r *redisConfig) DB() int {
	return r.DBInt
}

type cacheConfig struct {
	ProviderStr      string `yaml:"provider" env:"CACHE_PROVIDER" env-default:"memory"`
	DefaultTTLStr    string `yaml:"default_ttl" env-default:"1h"`
	PermissionTTLStr string `yaml:"permission_ttl" env-default:"10m"`
	MaxSizeInt       int    `yaml:"max_size" env-default:"10000"`
}

func (c *cacheConfig) Provider() string {
	return c.ProviderStr
}

func (c *cacheConfig) DefaultTTL() time.Duration {
	duration, _ := time.ParseDuration(c.DefaultTTLStr)
	return duration
}

func (c *cacheConfig) PermissionTTL() time.Duration {
	duration, _ := time.ParseDuration(c.PermissionTTLStr)
	return duration
}

func (c *cacheConfig) MaxSize() int {
	return c.MaxSizeInt
}

type loggerConfig struct {
	LogFilePathStr    string `yaml:"log_file_path"`
	LogFileNameStr    string `yaml:"log_file_name"`
	LogLevelStr       string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	FileExtensionStr  string `yaml:"file_extension" env-default:".log"`
	MaxFileSizeMBInt  int    `yaml:"max_file_size_mb" env-default:"100"`
	MaxFileAgeDaysInt int    `yaml:"max_file_age_days" env-default:"30"`
	MaxBackupFilesInt int    `yaml:"max_backup_files" env-default:"10"`
	EnableCompressed  bool   `yaml:"enable_compressed"`
}

func (l *loggerConfig) LogFilePath() string {
	return l.LogFilePathStr
}

func (l *loggerConfig) LogFileName() string {
	return l.LogFileNameStr
}

func (l *loggerConfig) LogLevel() string {
	return l.LogLevelStr
}

func (l *loggerConfig) FileExtension() string {
	return l.FileExtensionStr
}

func (l *loggerConfig) MaxFileSizeMB() int {
	return l.MaxFileSizeMBInt
}

func (l *loggerConfig) MaxFileAgeDays() int {
	return l.MaxFileAgeDaysInt
}

func (l *loggerConfig) MaxBackupFiles() int {
	return l.MaxBackupFilesInt
}

func (l *loggerConfig) IsCompressEnabled() bool {
	return l.EnableCompressed
}

type mediaConfig struct {
	ProviderStr       string `yaml:"provider" env:"MEDIA_PROVIDER" env-default:"local"`
	LocalDirStr       string `yaml:"local_dir" env-default:"./uploads"`
	PublicURLStr      string `yaml:"public_url" env:"MEDIA_PUBLIC_URL"`
	PlaceholderURLStr string `yaml:"placeholder_url"`
	S3EndpointURLStr  string `yaml:"s3_endpoint_url"`
	S3BucketNameStr   string `yaml:"s3_bucket_name"`
	S3PathPrefixStr   string `yaml:"s3_path_prefix"`
	S3RegionStr       string `yaml:"s3_region"`
	S3AccessKeyStr    string `env:"MEDIA_S3_ACCESS_KEY" env-default:""`
	S3SecretKeyStr    string `env:"MEDIA_S3_SECRET_KEY" env-default:""`
}

func (c *mediaConfig) Provider() string {
	return c.ProviderStr
}

func (c *mediaConfig) LocalDir() string {
	return c.LocalDirStr
}

func (c *mediaConfig) PublicURL() string {
	return c.PublicURLStr
}

func (c *mediaConfig) PlaceholderURL() string {
	return c.PlaceholderURLStr
}

func (c *mediaConfig) S3EndpointURL() string {
	return c.S3EndpointURLStr
}

func (c *mediaConfig) S3BucketName() string {
	return c.S3BucketNameStr
}

func (c *mediaConfig) S3PathPrefix() string {
	return c.S3PathPrefixStr
}

func (c *mediaConfig) S3Region() string {
	return c.S3RegionStr
}

func (c *mediaConfig) S3AccessKey() string {
	return c.S3AccessKeyStr
}

func (c *mediaConfig) S3SecretKey() string {
	return c.S3SecretKeyStr
}

type emailConfig struct {
	ProviderStr            string `yaml:"provider" env:"EMAIL_PROVIDER" env-default:"mock"`
	FromStr                string `yaml:"from"`
	FromNameStr            string `yaml:"from_name"`
	SESRegionStr           string `yaml:"ses_region"`
	SESAccessKeyStr        string `env:"EMAIL_SES_ACCESS_KEY" env-default:""`
	SESSecretKeyStr        string `env:"EMAIL_SES_SECRET_KEY" env-default:""`
	SESConfigurationSetStr string `yaml:"ses_configuration_set"`
	SendGridAPIKeyStr      string `env:"EMAIL_SENDGRID_API_KEY" env-default:""`
}

func (e *emailConfig) Provider() string {
	return e.ProviderStr
}

func (e *emailConfig) From() string {
	return e.FromStr
}

func (e *emailConfig) FromName() string {
	return e.FromNameStr
}

func (e *emailConfig) SESRegion() string {
	return e.SESRegionStr
}

func (e *emailConfig) SESAccessKey() string {
	return e.SESAccessKeyStr
}

func (e *emailConfig) SESSecretKey() string {
	return e.SESSecretKeyStr
}

func (e *emailConfig) SESConfigurationSet() string {
	return e.SESConfigurationSetStr
}

func (e *emailConfig) SendGridAPIKey() string {
	return e.SendGridAPIKeyStr
}

type rbacConfig struct {
	GuardsArr          []string `yaml:"guards"`
	CorePermissionsArr []string `yaml:"core_permissions"`
	CoreRolesArr       []string `yaml:"core_roles"`
	SuperAdminNameStr  string   `yaml:"super_admin_name" env-default:"Super Admin"`
	SuperAdminEmailStr string   `env:"SUPER_ADMIN_EMAIL" env-default:""`
	SuperAdminPassStr  string   `env:"SUPER_ADMIN_PASSWORD" env-default:""`
}

func (r *rbacConfig) Guards() []string {
	return r.GuardsArr
}

func (r *rbacConfig) CorePermissions() []string {
	return r.CorePermissionsArr
}

func (r *rbacConfig) CoreRoles() []string {
	return r.CoreRolesArr
}

func (r *rbacConfig) SuperAdminName() string {
	return r.SuperAdminNameStr
}

func (r *rbacConfig) SuperAdminEmail() string {
	return r.SuperAdminEmailStr
}

func (r *rbacConfig) SuperAdminPassword() string {
	return r.SuperAdminPassStr
}

type rateLimitConfig struct {
	LoginMaxRequestsInt int    `yaml:"login_max_requests" env-default:"5"`
	LoginWindowStr      string `yaml:"login_window" env-default:"5m"`
	APIMaxRequestsInt   int    `yaml:"api_max_requests" env-default:"120"`
	APIWindowStr        string `yaml:"api_window" env-default:"1m"`
}

func (r *rateLimitConfig) LoginMaxRequests() int {
	return r.LoginMaxRequestsInt
}

func (r *rateLimitConfig) LoginWindow() time.Duration {
	duration, _ := time.ParseDuration(r.LoginWindowStr)
	return duration
}

func (r *rateLimitConfig) APIMaxRequests() int {
	return r.APIMaxRequestsInt
}

func (r *rateLimitConfig) APIWindow() time.Duration {
	duration, _ := time.ParseDuration(r.APIWindowStr)
	return duration
}

type rpcConfig struct {
	HostStr string `yaml:"host" env-default:"0.0.0.0"`
	PortInt int    `yaml:"port" env-default:"9090"`
}

func (r *rpcConfig) Host() string {
	return r.HostStr
}

func (r *rpcConfig) Port() int {
	return r.PortInt
}
