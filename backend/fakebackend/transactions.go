package fakebackend

import (
	"cmp"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/jrsteele09/go-payment-console/apiclient"
	"github.com/jrsteele09/go-payment-console/entities"
)

const (
	recentLimit = 5
	maxQRBytes  = 1 << 20
)

var periodSpan = map[string]time.Duration{
	"today": 24 * time.Hour,
	"week":  7 * 24 * time.Hour,
	"month": 30 * 24 * time.Hour,
	"year":  365 * 24 * time.Hour,
}

// visibleTransactions returns the caller's transactions, newest first. Callers hold b.mu.
func (b *Backend) visibleTransactions(u *User) []entities.Transaction {
	owned := make(map[int64]bool)
	for _, a := range b.visibleAccounts(u) {
		owned[a.ID] = true
	}
	out := []entities.Transaction{}
	for _, t := range b.transactions {
		if u.HasRole(entities.RoleAdmin) || owned[t.AccountID] {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b entities.Transaction) int { return cmp.Compare(b.ID, a.ID) })
	return out
}

func (b *Backend) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req entities.Withdrawal
	if !decode(w, r, &req) {
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "Amount must be positive")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	account, ok := b.accounts[req.AccountID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown account")
		return
	}
	if req.TransactionType == entities.TransactionWithdrawal && account.MaxDaily > 0 && req.Amount > account.MaxDaily {
		writeError(w, http.StatusBadRequest, "Amount exceeds daily limit")
		return
	}
	t := entities.Transaction{
		ID:                 b.id(),
		AccountID:          account.ID,
		Amount:             req.Amount,
		Currency:           req.Currency,
		Type:               req.TransactionType,
		Status:             entities.StatusPending,
		Date:               b.now().UTC().Format(time.RFC3339),
		TransactionAccount: &account,
	}
	t.Reference = fmt.Sprintf("TX-%06d", t.ID)
	b.transactions[t.ID] = t
	writeData(w, t)
}

func (b *Backend) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var t entities.Transaction
	if !decode(w, r, &t) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.transactions[t.ID]; !ok {
		writeError(w, http.StatusNotFound, "Transaction not found")
		return
	}
	if t.TotalPaid() >= t.Amount && t.Amount > 0 {
		t.Status = entities.StatusCompleted
	}
	b.transactions[t.ID] = t
	writeData(w, t)
}

func (b *Backend) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.visibleTransactions(caller(r)) {
		if t.ID == id {
			writeData(w, t)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Transaction not found")
}

func (b *Backend) handleQueryTransactions(w http.ResponseWriter, r *http.Request) {
	query := entities.DefaultTransactionQuery()
	if !decode(w, r, &query) {
		return
	}
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Size < 1 {
		query.Size = entities.DefaultTransactionQuery().Size
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	var matched []entities.Transaction
	for _, t := range b.visibleTransactions(caller(r)) {
		if query.TransactionType != nil && t.Type != *query.TransactionType {
			continue
		}
		if query.AccountID != 0 && t.AccountID != query.AccountID {
			continue
		}
		if query.Period != "" && !b.within(t, query.Period) {
			continue
		}
		matched = append(matched, t)
	}

	page := apiclient.Page[entities.Transaction]{
		Content:       []entities.Transaction{},
		Page:          query.Page,
		Size:          query.Size,
		TotalElements: int64(len(matched)),
		TotalPages:    (len(matched) + query.Size - 1) / query.Size,
	}
	start := (query.Page - 1) * query.Size
	if start < len(matched) {
		page.Content = matched[start:min(start+query.Size, len(matched))]
	}
	writeData(w, page)
}

// within reports whether t falls inside period. Undated transactions always match.
func (b *Backend) within(t entities.Transaction, period string) bool {
	span, ok := periodSpan[period]
	if !ok {
		return true
	}
	at, err := time.Parse(time.RFC3339, t.Date)
	if err != nil {
		return true
	}
	return b.now().Sub(at) <= span
}

func (b *Backend) handleDashboard(w http.ResponseWriter, r *http.Request) {
	period := r.PathValue("period")
	if _, ok := periodSpan[period]; !ok {
		writeError(w, http.StatusBadRequest, "Unknown period")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	dashboard := entities.Dashboard{RecentTransactions: []entities.Transaction{}}
	for _, t := range b.visibleTransactions(caller(r)) {
		if !b.within(t, period) {
			continue
		}
		dashboard.TransactionCount++
		switch t.Type {
		case entities.TransactionDeposit:
			dashboard.TotalDeposit += t.Amount
		case entities.TransactionWithdrawal:
			dashboard.TotalWithdrawal += t.Amount
		}
		if len(dashboard.RecentTransactions) < recentLimit {
			dashboard.RecentTransactions = append(dashboard.RecentTransactions, t)
		}
	}
	writeData(w, dashboard)
}

func (b *Backend) handleBalance(w http.ResponseWriter, r *http.Request) {
	u := caller(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	balance := entities.Balance{UserID: u.ID}
	for _, a := range b.visibleAccounts(u) {
		balance.Balance += a.AccountBalance
	}
	if c, ok := b.clients[u.ClientID]; ok {
		balance.Commission = c.CommissionRate
	}
	writeData(w, balance)
}

func (b *Backend) handleUploadQR(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxQRBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Malformed upload")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	account, found := b.accounts[id]
	if !found {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	b.qrImages[id] = qrImage{data: data, contentType: contentType}
	account.HasQRCode = true
	b.accounts[id] = account
	writeData(w, account)
}

func (b *Backend) handleDownloadQR(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	img, found := b.qrImages[id]
	b.mu.Unlock()
	if !found {
		writeError(w, http.StatusNotFound, "QR code not found")
		return
	}
	w.Header().Set("Content-Type", img.contentType)
	_, _ = w.Write(img.data)
}
