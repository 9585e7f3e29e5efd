package fakebackend

import (
	"net/http"
)

func (b *Backend) routes() {
	b.handle("POST /auth/login", b.handleLogin)
	b.handle("POST /auth/refresh", b.handleRefresh)

	b.handle("POST /users/logout", b.authenticated(b.handleLogout))
	b.handle("GET /users/{id}", b.authenticated(b.handleGetUser))
	b.handle("PUT /users", b.authenticated(b.handleUpdateUser))
	b.handle("POST /users/resetPassword", b.authenticated(b.handleChangePassword))

	b.handle("GET /clients", b.admin(b.handleListClients))
	b.handle("POST /clients", b.admin(b.handleCreateClient))
	b.handle("PUT /clients", b.admin(b.handleUpdateClient))
	b.handle("DELETE /clients/{id}", b.admin(b.handleDeleteClient))

	b.handle("GET /accounts", b.authenticated(b.handleListAccounts))
	b.handle("POST /accounts", b.authenticated(b.handleCreateAccount))
	b.handle("PUT /accounts", b.authenticated(b.handleUpdateAccount))
	b.handle("DELETE /accounts/{id}", b.authenticated(b.handleDeleteAccount))
	b.handle("POST /accounts/{id}/upload-qr", b.authenticated(b.handleUploadQR))
	b.handle("GET /accounts/{id}/qr-code", b.authenticated(b.handleDownloadQR))

	b.handle("GET /packages", b.authenticated(b.handleListPackages))
	b.handle("POST /packages", b.authenticated(b.handleCreatePackage))
	b.handle("PUT /packages", b.authenticated(b.handleUpdatePackage))
	b.handle("DELETE /packages/{id}", b.authenticated(b.handleDeletePackage))

	b.handle("GET /roles", b.authenticated(b.handleListRoles))

	b.handle("POST /trans", b.authenticated(b.handleCreateTransaction))
	b.handle("PUT /trans", b.authenticated(b.handleUpdateTransaction))
	b.handle("GET /trans/{id}", b.authenticated(b.handleGetTransaction))
	b.handle("POST /trans/query", b.authenticated(b.handleQueryTransactions))
	b.handle("GET /trans/dashboard/{period}", b.authenticated(b.handleDashboard))
	b.handle("GET /trans/balance", b.authenticated(b.handleBalance))
}

// handle counts calls to route and serves a queued failure before the real handler.
func (b *Backend) handle(route string, h http.HandlerFunc) {
	b.mux.HandleFunc(route, func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[route]++
		f, fail := b.failNext[route]
		delete(b.failNext, route)
		b.mu.Unlock()
		if fail {
			writeError(w, f.status, f.message)
			return
		}
		h(w, r)
	})
}
