package config

import "time"

type Backend struct{}

var _ BackendConfig = Backend{}

// GetBackendBaseURL returns the payment backend REST root, e.g. "https://payments.example.com/ev/v1/rest/api/"
func (Backend) GetBackendBaseURL() string {
	return GetEnv("BACKEND_BASE_URL", "http://localhost:9090/ev/v1/rest/api/")
}

func (Backend) GetBackendTimeout() time.Duration {
	return GetEnvDuration("BACKEND_TIMEOUT", 15*time.Second)
}
