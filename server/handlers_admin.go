package server

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/jrsteele09/go-payment-console/cache"
	"github.com/jrsteele09/go-payment-console/entities"
)

const maxQRUpload = 2 << 20

// List pages render the slice even when the refresh failed: the stale items stay, the
// failure is in the snapshot status and the toast.
func writeSnapshot[E cache.Identifiable](w http.ResponseWriter, slice *cache.Slice[E]) {
	writeJSON(w, http.StatusOK, slice.Snapshot())
}

func (s *Server) ClientsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := consoleFrom(r)
		_, _ = c.FetchClients(r.Context())
		writeSnapshot(w, c.Clients())
	}
}

func (s *Server) CreateClientHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var client entities.Client
		if !decodeBody(w, r, &client) {
			return
		}
		created, err := consoleFrom(r).CreateClient(r.Context(), client)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func (s *Server) UpdateClientHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var client entities.Client
		if !decodeBody(w, r, &client) {
			return
		}
		client.ID = id
		updated, err := consoleFrom(r).UpdateClient(r.Context(), client)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func (s *Server) DeleteClientHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := consoleFrom(r).DeleteClient(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"deleted": id})
	}
}

type accountsPage struct {
	Accounts cache.Snapshot[entities.Account] `json:"accounts"`
	Roles    cache.Snapshot[entities.Role]    `json:"roles"`
}

func (s *Server) AccountsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := consoleFrom(r)
		_, _ = c.FetchAccounts(r.Context())
		_, _ = c.FetchRoles(r.Context())
		writeJSON(w, http.StatusOK, accountsPage{Accounts: c.Accounts().Snapshot(), Roles: c.Roles().Snapshot()})
	}
}

func (s *Server) CreateAccountHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var account entities.Account
		if !decodeBody(w, r, &account) {
			return
		}
		created, err := consoleFrom(r).CreateAccount(r.Context(), account)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func (s *Server) UpdateAccountHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var account entities.Account
		if !decodeBody(w, r, &account) {
			return
		}
		account.ID = id
		updated, err := consoleFrom(r).UpdateAccount(r.Context(), account)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

// DeleteAccountHandler only opens the confirmation modal; POST /api/ui/modal/confirm deletes.
func (s *Server) DeleteAccountHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		c := consoleFrom(r)
		if err := c.ConfirmDeleteAccount(id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, c.UI().State())
	}
}

func (s *Server) SelectAccountHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		account, found := consoleFrom(r).SelectAccount(id)
		if !found {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "Account not found"})
			return
		}
		writeJSON(w, http.StatusOK, account)
	}
}

func (s *Server) ThresholdHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var th entities.Threshold
		if !decodeBody(w, r, &th) {
			return
		}
		th.AccountID = id
		updated, err := consoleFrom(r).SaveThreshold(r.Context(), th)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func (s *Server) UploadQRHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := r.ParseMultipartForm(maxQRUpload); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "Malformed upload"})
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "Missing file"})
			return
		}
		defer file.Close()

		c := consoleFrom(r)
		if err := c.UploadAccountQR(r.Context(), id, header.Filename, file); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c.UI().State())
	}
}

func (s *Server) DownloadQRHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		data, contentType, err := consoleFrom(r).DownloadAccountQR(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if contentType == "" {
			contentType = http.DetectContentType(data)
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(data)
	}
}

func (s *Server) PackagesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := consoleFrom(r)
		_, _ = c.FetchPackages(r.Context())
		writeSnapshot(w, c.Packages())
	}
}

func (s *Server) CreatePackageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var pkg entities.Package
		if !decodeBody(w, r, &pkg) {
			return
		}
		created, err := consoleFrom(r).CreatePackage(r.Context(), pkg)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func (s *Server) UpdatePackageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var pkg entities.Package
		if !decodeBody(w, r, &pkg) {
			return
		}
		pkg.ID = id
		updated, err := consoleFrom(r).UpdatePackage(r.Context(), pkg)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func (s *Server) DeletePackageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := consoleFrom(r).DeletePackage(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"deleted": id})
	}
}

// transactionQuery reads page, size, type, period and accountId from the query string.
// Absent parameters leave the slice's previous query in force.
func transactionQuery(values url.Values) *entities.TransactionQuery {
	if len(values) == 0 {
		return nil
	}
	q := entities.DefaultTransactionQuery()
	if n, err := strconv.Atoi(values.Get("page")); err == nil {
		q.Page = n
	}
	if n, err := strconv.Atoi(values.Get("size")); err == nil {
		q.Size = n
	}
	if t, ok := entities.ParseTransactionType(values.Get("type")); ok {
		q.TransactionType = &t
	}
	if p := values.Get("period"); entities.ValidPeriod(p) {
		q.Period = p
	}
	if n, err := strconv.ParseInt(values.Get("accountId"), 10, 64); err == nil {
		q.AccountID = n
	}
	return &q
}

func (s *Server) ReportsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := consoleFrom(r)
		_, _ = c.FetchReports(r.Context(), transactionQuery(r.URL.Query()))
		writeSnapshot(w, c.Reports())
	}
}

// TransactionsHandler backs both transaction monitoring and the client's history.
func (s *Server) TransactionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := consoleFrom(r)
		_, _ = c.FetchTransactions(r.Context(), transactionQuery(r.URL.Query()))
		writeSnapshot(w, c.Transactions())
	}
}

func (s *Server) TransactionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		tx, err := consoleFrom(r).LoadTransaction(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

type subPaymentForm struct {
	PaymentID string  `json:"paymentId"`
	Amount    float64 `json:"amount"`
}

func (s *Server) SubPaymentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var form subPaymentForm
		if !decodeBody(w, r, &form) {
			return
		}
		c := consoleFrom(r)
		if _, cached := c.Transactions().Find(id); !cached {
			if _, err := c.LoadTransaction(r.Context(), id); err != nil {
				writeError(w, err)
				return
			}
		}
		tx, err := c.RecordSubPayment(r.Context(), id, form.PaymentID, form.Amount)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}
