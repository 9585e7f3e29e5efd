package server

// Route path constants
const (
	// Public
	RouteLogin      = "/login"
	RouteAuthLogin  = "/auth/login"
	RouteAuthLogout = "/auth/logout"
	RouteHealth     = "/healthz"
	RouteMetrics    = "/metrics"

	// Any authenticated user
	RouteAuthRefresh  = "/auth/refresh"
	RouteSession      = "/api/session"
	RouteUI           = "/api/ui"
	RouteToastHide    = "/api/ui/toast/hide"
	RouteModalConfirm = "/api/ui/modal/confirm"
	RouteModalCancel  = "/api/ui/modal/cancel"
	RouteAPIDocs      = "/api-docs"

	// Admin or client
	RouteDashboard = "/"

	// Admin
	RouteClients          = "/clients"
	RouteClient           = "/clients/{id}"
	RouteAccounts         = "/accounts"
	RouteAccount          = "/accounts/{id}"
	RouteAccountSelect    = "/accounts/{id}/select"
	RouteAccountThreshold = "/accounts/{id}/threshold"
	RouteAccountQR        = "/accounts/{id}/qr-code"
	RoutePackages         = "/packages"
	RoutePackage          = "/packages/{id}"
	RouteReports          = "/reports"
	RouteMonitoring       = "/transactions/monitoring"
	RouteTransaction      = "/transactions/{id}"
	RouteSubPayments      = "/transactions/{id}/sub-payments"

	// Client
	RouteProfile         = "/profile"
	RouteProfilePassword = "/profile/password"
	RouteHistory         = "/transactions/history"
	RouteWithdrawal      = "/withdrawal"
	RouteBalance         = "/balance"
)
