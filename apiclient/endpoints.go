package apiclient

import (
	"strconv"
	"strings"
)

// Backend route patterns, relative to the configured base URL.
const (
	EndpointLogin         = "auth/login"
	EndpointRefresh       = "auth/refresh"
	EndpointRegister      = "auth/register"
	EndpointResetPassword = "auth/resetPassword"

	EndpointUsers              = "users"
	EndpointUser               = "users/{id}"
	EndpointUserLogout         = "users/logout"
	EndpointUserPasswordUpdate = "users/resetPassword"

	EndpointClients        = "clients"
	EndpointClient         = "clients/{id}"
	EndpointClientPassword = "clients/resetPassword"
	EndpointClientsQuery   = "clients/query"

	EndpointAccounts        = "accounts"
	EndpointAccount         = "accounts/{id}"
	EndpointAccountUploadQR = "accounts/{id}/upload-qr"
	EndpointAccountQR       = "accounts/{id}/qr-code"
	EndpointAccountsQuery   = "accounts/query"

	EndpointPackages     = "packages"
	EndpointPackage      = "packages/{id}"
	EndpointPackageTiers = "package-tiers"

	EndpointRoles = "roles"
	EndpointRole  = "roles/{id}"

	EndpointTransactions      = "trans"
	EndpointTransaction       = "trans/{id}"
	EndpointTransactionsQuery = "trans/query"
	EndpointDashboard         = "trans/dashboard/"
	EndpointBalance           = "trans/balance"
)

// Path expands the {id} placeholder of an endpoint pattern.
func Path(pattern string, id int64) string {
	return strings.ReplaceAll(pattern, "{id}", strconv.FormatInt(id, 10))
}

// DashboardPath appends the aggregation period to the dashboard endpoint.
func DashboardPath(period string) string {
	return EndpointDashboard + period
}
