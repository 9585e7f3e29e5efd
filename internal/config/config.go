package config

import (
	"time"

	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	BackendConfig
	StorageConfig
	CorsConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetMetricsEnabled() bool
}

type BackendConfig interface {
	GetBackendBaseURL() string
	GetBackendTimeout() time.Duration
}

type StorageConfig interface {
	GetStorageDriver() string
	GetStorageNamespace() string
	GetSQLiteDSN() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type SecurityConfig interface {
	GetWorkspaceCookieName() string
	GetWorkspaceIdleTimeout() time.Duration
	GetServerLogoutTimeout() time.Duration
}

type mainConfig struct {
	EnvVars
	Backend
	Storage
	Cors
	Security
}

// New loads an optional .env file and returns the environment backed configuration.
func New() Config {
	_ = godotenv.Load()
	return mainConfig{}
}
