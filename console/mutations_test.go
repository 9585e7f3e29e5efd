package console_test

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/jrsteele09/go-payment-console/entities"
	"github.com/jrsteele09/go-payment-console/internal/errors"
	"github.com/jrsteele09/go-payment-console/ui"
	"github.com/stretchr/testify/require"
)

func TestClientMutations(t *testing.T) {
	t.Run("create is applied after the server accepts it", func(t *testing.T) {
		f := setupTestFixture(t)
		f.loginAs(t, adminEmail)

		created, err := f.store.CreateClient(f.ctx, entities.Client{Name: "Acme", Email: "acme@example.com", Password: "secret-pass"})
		require.NoError(t, err)
		require.NotZero(t, created.ID)
		require.Empty(t, created.Password)

		cached, ok := f.store.Clients().Find(created.ID)
		require.True(t, ok)
		require.Equal(t, "Acme", cached.Name)
		require.Equal(t, ui.SeveritySuccess, f.store.UI().State().Toast.Severity)
		require.False(t, f.store.UI().Loading())
	})

	t.Run("rejected update leaves the cache alone", func(t *testing.T) {
		f := setupTestFixture(t)
		f.loginAs(t, adminEmail)
		clients, err := f.store.FetchClients(f.ctx)
		require.NoError(t, err)
		original := clients[0]

		changed := original
		changed.Name = "Renamed"
		f.backend.FailNext("PUT /clients", http.StatusInternalServerError, "Update rejected")
		_, err = f.store.UpdateClient(f.ctx, changed)
		require.True(t, errors.IsKind(err, errors.KindMutation))

		cached, ok := f.store.Clients().Find(original.ID)
		require.True(t, ok)
		require.Equal(t, original.Name, cached.Name)
		require.Equal(t, "Update rejected", f.store.UI().State().Toast.Message)
	})

	t.Run("invalid form never reaches the backend", func(t *testing.T) {
		f := setupTestFixture(t)
		f.loginAs(t, adminEmail)

		_, err := f.store.CreateClient(f.ctx, entities.Client{Name: "Acme", Email: "not-an-email"})
		require.Error(t, err)
		require.Equal(t, "Invalid email", errors.Message(err))
		require.Zero(t, f.backend.Calls("POST /clients"))
	})

	t.Run("delete removes locally", func(t *testing.T) {
		f := setupTestFixture(t)
		f.loginAs(t, adminEmail)
		clients, err := f.store.FetchClients(f.ctx)
		require.NoError(t, err)

		require.NoError(t, f.store.DeleteClient(f.ctx, clients[0].ID))
		require.Empty(t, f.store.Clients().Items())
	})
}

func TestAccountMutations(t *testing.T) {
	t.Run("confirmed delete runs through the modal", func(t *testing.T) {
		f := setupTestFixture(t)
		f.loginAs(t, adminEmail)
		_, err := f.store.FetchAccounts(f.ctx)
		require.NoError(t, err)

		require.NoError(t, f.store.ConfirmDeleteAccount(f.account.ID))
		modal := f.store.UI().State().Modal
		require.True(t, modal.Show)
		require.Equal(t, "Delete", modal.ActionText)
		require.True(t, f.store.UI().HasModalAction())
		require.Zero(t, f.backend.Calls("DELETE /accounts/{id}"))

		confirmed, err := f.store.UI().ConfirmModal(f.ctx)
		require.NoError(t, err)
		require.True(t, confirmed)
		require.False(t, f.store.UI().State().Modal.Show)
		_, ok := f.store.Accounts().Find(f.account.ID)
		require.False(t, ok)
		_, ok = f.backend.Account(f.account.ID)
		require.False(t, ok)
	})

	t.Run("rejected delete is reported by confirm", func(t *testing.T) {
		f := setupTestFixture(t)
		f.loginAs(t, adminEmail)
		_, err := f.store.FetchAccounts(f.ctx)
		require.NoError(t, err)
		require.NoError(t, f.store.ConfirmDeleteAccount(f.account.ID))

		f.backend.FailNext("DELETE /accounts/{id}", http.StatusConflict, "Account has transactions")
		confirmed, err := f.store.UI().ConfirmModal(f.ctx)
		require.True(t, confirmed)
		require.True(t, errors.IsKind(err, errors.KindMutation))
		require.Equal(t, "Account has transactions", errors.Message(err))
		_, ok := f.store.Accounts().Find(f.account.ID)
		require.True(t, ok)
	})

	t.Run("confirm delete of unknown account", func(t *testing.T) {
		f := setupTestFixture(t)
		err := f.store.ConfirmDeleteAccount(999)
		require.True(t, errors.Is(err, errors.ErrNotFound))
		require.False(t, f.store.UI().State().Modal.Show)
	})

	t.Run("threshold is saved", func(t *testing.T) {
		f := setupTestFixture(t)
		f.loginAs(t, adminEmail)
		_, err := f.store.FetchAccounts(f.ctx)
		require.NoError(t, err)

		updated, err := f.store.SaveThreshold(f.ctx, entities.Threshold{AccountID: f.account.ID, MaxDaily: 100, MaxMonthly: 1000})
		require.NoError(t, err)
		require.Equal(t, 100.0, updated.MaxDaily)

		cached, _ := f.store.Accounts().Find(f.account.ID)
		require.Equal(t, 1000.0, cached.MaxMonthly)
		stored, _ := f.backend.Account(f.account.ID)
		require.Equal(t, 100.0, stored.MaxDaily)
	})

	t.Run("daily above monthly is rejected locally", func(t *testing.T) {
		f := setupTestFixture(t)
		f.loginAs(t, adminEmail)
		_, err := f.store.FetchAccounts(f.ctx)
		require.NoError(t, err)

		_, err = f.store.SaveThreshold(f.ctx, entities.Threshold{AccountID: f.account.ID, MaxDaily: 500, MaxMonthly: 100})
		require.Error(t, err)
		require.Zero(t, f.backend.Calls("PUT /accounts"))
	})

	t.Run("package needs a selected account", func(t *testing.T) {
		f := setupTestFixture(t)
		f.loginAs(t, adminEmail)
		_, err := f.store.FetchAccounts(f.ctx)
		require.NoError(t, err)

		pkg := entities.Package{Tier: "Gold", ServiceFee: 1.5, Requirement: "KYC"}
		_, err = f.store.CreatePackage(f.ctx, pkg)
		require.True(t, errors.Is(err, errors.ErrNoSelection))
		require.Zero(t, f.backend.Calls("POST /packages"))

		_, ok := f.store.SelectAccount(f.account.ID)
		require.True(t, ok)
		created, err := f.store.CreatePackage(f.ctx, pkg)
		require.NoError(t, err)
		require.Equal(t, f.account.ID, created.AccountID)
		_, ok = f.store.Packages().Find(created.ID)
		require.True(t, ok)
	})
}

func TestAccountQR(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nqr-image")

	t.Run("unsupported extension is rejected", func(t *testing.T) {
		f := setupTestFixture(t)
		f.loginAs(t, adminEmail)

		err := f.store.UploadAccountQR(f.ctx, f.account.ID, "qr.gif", bytes.NewReader(png))
		require.True(t, errors.Is(err, errors.ErrUnsupported))
		require.Zero(t, f.backend.Calls("POST /accounts/{id}/upload-qr"))
	})

	t.Run("upload then download", func(t *testing.T) {
		f := setupTestFixture(t)
		f.loginAs(t, adminEmail)
		_, err := f.store.FetchAccounts(f.ctx)
		require.NoError(t, err)

		require.NoError(t, f.store.UploadAccountQR(f.ctx, f.account.ID, "QR.PNG", bytes.NewReader(png)))
		cached, _ := f.store.Accounts().Find(f.account.ID)
		require.True(t, cached.HasQRCode)

		data, contentType, err := f.store.DownloadAccountQR(f.ctx, f.account.ID)
		require.NoError(t, err)
		require.Equal(t, png, data)
		require.Equal(t, "image/png", contentType)
	})
}
