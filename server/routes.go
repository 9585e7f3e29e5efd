package server

import (
	"github.com/jrsteele09/go-payment-console/entities"
)

func (s *Server) initRoutes() {
	// Operational
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteMetrics, s.MetricsHandler())

	// LOGIN
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageHandler(), s.PageMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.PageMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.PageMiddleware()...))

	// Any signed-in user
	signedIn := s.PageMiddleware(s.RequireSession())
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), signedIn...))
	s.RegisterRouteHandler("GET "+RouteSession, ChainMiddleware(s.SessionHandler(), signedIn...))
	s.RegisterRouteHandler("GET "+RouteUI, ChainMiddleware(s.UIStateHandler(), signedIn...))
	s.RegisterRouteHandler("POST "+RouteToastHide, ChainMiddleware(s.HideToastHandler(), signedIn...))
	s.RegisterRouteHandler("POST "+RouteModalConfirm, ChainMiddleware(s.ConfirmModalHandler(), signedIn...))
	s.RegisterRouteHandler("POST "+RouteModalCancel, ChainMiddleware(s.CancelModalHandler(), signedIn...))
	s.RegisterRouteHandler("GET "+RouteAPIDocs, ChainMiddleware(s.APIDocsHandler(), signedIn...))

	// Both role trees share the dashboard
	anyRole := s.PageMiddleware(s.RequireRole(entities.RoleAdmin, entities.RoleClient))
	s.RegisterRouteHandler("GET "+RouteDashboard+"{$}", ChainMiddleware(s.DashboardHandler(), anyRole...))

	// Admin
	admin := s.PageMiddleware(s.RequireRole(entities.RoleAdmin))
	s.RegisterRouteHandler("GET "+RouteClients, ChainMiddleware(s.ClientsHandler(), admin...))
	s.RegisterRouteHandler("POST "+RouteClients, ChainMiddleware(s.CreateClientHandler(), admin...))
	s.RegisterRouteHandler("PUT "+RouteClient, ChainMiddleware(s.UpdateClientHandler(), admin...))
	s.RegisterRouteHandler("DELETE "+RouteClient, ChainMiddleware(s.DeleteClientHandler(), admin...))

	s.RegisterRouteHandler("GET "+RouteAccounts, ChainMiddleware(s.AccountsHandler(), admin...))
	s.RegisterRouteHandler("POST "+RouteAccounts, ChainMiddleware(s.CreateAccountHandler(), admin...))
	s.RegisterRouteHandler("PUT "+RouteAccount, ChainMiddleware(s.UpdateAccountHandler(), admin...))
	s.RegisterRouteHandler("DELETE "+RouteAccount, ChainMiddleware(s.DeleteAccountHandler(), admin...))
	s.RegisterRouteHandler("POST "+RouteAccountSelect, ChainMiddleware(s.SelectAccountHandler(), admin...))
	s.RegisterRouteHandler("PUT "+RouteAccountThreshold, ChainMiddleware(s.ThresholdHandler(), admin...))
	s.RegisterRouteHandler("POST "+RouteAccountQR, ChainMiddleware(s.UploadQRHandler(), admin...))
	s.RegisterRouteHandler("GET "+RouteAccountQR, ChainMiddleware(s.DownloadQRHandler(), admin...))

	s.RegisterRouteHandler("GET "+RoutePackages, ChainMiddleware(s.PackagesHandler(), admin...))
	s.RegisterRouteHandler("POST "+RoutePackages, ChainMiddleware(s.CreatePackageHandler(), admin...))
	s.RegisterRouteHandler("PUT "+RoutePackage, ChainMiddleware(s.UpdatePackageHandler(), admin...))
	s.RegisterRouteHandler("DELETE "+RoutePackage, ChainMiddleware(s.DeletePackageHandler(), admin...))

	s.RegisterRouteHandler("GET "+RouteReports, ChainMiddleware(s.ReportsHandler(), admin...))
	s.RegisterRouteHandler("GET "+RouteMonitoring, ChainMiddleware(s.TransactionsHandler(), admin...))
	s.RegisterRouteHandler("GET "+RouteTransaction, ChainMiddleware(s.TransactionHandler(), admin...))
	s.RegisterRouteHandler("POST "+RouteSubPayments, ChainMiddleware(s.SubPaymentHandler(), admin...))

	// Client
	client := s.PageMiddleware(s.RequireRole(entities.RoleClient))
	s.RegisterRouteHandler("GET "+RouteProfile, ChainMiddleware(s.ProfileHandler(), client...))
	s.RegisterRouteHandler("PUT "+RouteProfile, ChainMiddleware(s.UpdateProfileHandler(), client...))
	s.RegisterRouteHandler("POST "+RouteProfilePassword, ChainMiddleware(s.ChangePasswordHandler(), client...))
	s.RegisterRouteHandler("GET "+RouteHistory, ChainMiddleware(s.TransactionsHandler(), client...))
	s.RegisterRouteHandler("GET "+RouteWithdrawal, ChainMiddleware(s.WithdrawalPageHandler(), client...))
	s.RegisterRouteHandler("POST "+RouteWithdrawal, ChainMiddleware(s.WithdrawalHandler(), client...))
	s.RegisterRouteHandler("GET "+RouteBalance, ChainMiddleware(s.BalanceHandler(), client...))

	// CORS preflight for every path
	s.RegisterRouteHandler("OPTIONS /", ChainMiddleware(s.PreflightHandler(), s.CorsMiddleware))

	// Unknown pages go to login
	s.RegisterRouteHandler("GET /", ChainMiddleware(s.NotFoundHandler(), s.APIMiddleware()...))
}
