package config

import "time"

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetWorkspaceCookieName() string {
	return GetEnv("WORKSPACE_COOKIE", "console_workspace")
}

// GetWorkspaceIdleTimeout is how long an unused browser workspace stays in memory
func (Security) GetWorkspaceIdleTimeout() time.Duration {
	return GetEnvDuration("WORKSPACE_IDLE_TIMEOUT", 2*time.Hour)
}

func (Security) GetServerLogoutTimeout() time.Duration {
	return GetEnvDuration("SERVER_LOGOUT_TIMEOUT", 5*time.Second)
}
