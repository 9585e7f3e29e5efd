package console_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-payment-console/apiclient"
	"github.com/jrsteele09/go-payment-console/backend/fakebackend"
	"github.com/jrsteele09/go-payment-console/console"
	"github.com/jrsteele09/go-payment-console/entities"
	"github.com/jrsteele09/go-payment-console/session"
	"github.com/jrsteele09/go-payment-console/storage"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail  = "admin@example.com"
	clientEmail = "client@example.com"
	password    = "password123"
)

type testFixture struct {
	ctx     context.Context
	backend *fakebackend.Backend
	session *session.Store
	store   *console.Store
	admin   *fakebackend.User
	client  *fakebackend.User
	account entities.Account
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{ctx: context.Background(), backend: fakebackend.New()}

	var err error
	f.admin, err = f.backend.AddUser(adminEmail, password, "Admin", entities.RoleAdmin)
	require.NoError(t, err)
	f.client, err = f.backend.AddUser(clientEmail, password, "Client", entities.RoleClient)
	require.NoError(t, err)
	f.account = f.backend.SeedAccount(entities.Account{
		ClientID:       f.client.ClientID,
		Name:           "Main",
		Bank:           "ACME",
		AccountNumber:  "0001",
		CurrencyCode:   "USD",
		AccountBalance: 500,
	})

	server := httptest.NewServer(f.backend)
	t.Cleanup(server.Close)

	api := apiclient.New(server.URL+"/", apiclient.WithHTTPClient(server.Client()))
	f.session = session.New(session.NewAPIAuthenticator(api), storage.NewMemory())
	api.UseTokenSource(f.session)

	f.store, err = console.New(api, f.session)
	require.NoError(t, err)
	return f
}

func (f *testFixture) loginAs(t *testing.T, email string) {
	t.Helper()
	_, err := f.session.Login(f.ctx, session.Credentials{Username: email, Password: password})
	require.NoError(t, err)
}
