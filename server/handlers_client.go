package server

import (
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-payment-console/cache"
	"github.com/jrsteele09/go-payment-console/entities"
)

func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := consoleFrom(r).LoadProfile(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func (s *Server) UpdateProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var profile entities.Profile
		if !decodeBody(w, r, &profile) {
			return
		}
		updated, err := consoleFrom(r).UpdateProfile(r.Context(), profile)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func (s *Server) ChangePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var change entities.PasswordChange
		if !decodeBody(w, r, &change) {
			return
		}
		c := consoleFrom(r)
		if err := c.ChangePassword(r.Context(), change); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c.UI().State())
	}
}

type withdrawalPage struct {
	Accounts       cache.Snapshot[entities.Account] `json:"accounts"`
	Balance        *entities.Balance                `json:"balance"`
	CommissionRate float64                          `json:"commissionRate"`
	Amount         float64                          `json:"amount,omitempty"`
	NetAmount      float64                          `json:"netAmount,omitempty"`
}

// WithdrawalPageHandler loads the client's accounts and balance. With ?amount= it also
// previews the payout after commission.
func (s *Server) WithdrawalPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := consoleFrom(r)
		_, _ = c.FetchAccounts(r.Context())
		_, _ = c.FetchBalance(r.Context())

		page := withdrawalPage{
			Accounts:       c.Accounts().Snapshot(),
			Balance:        c.Balance(),
			CommissionRate: c.CommissionRate(),
		}
		if amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64); err == nil && amount > 0 {
			page.Amount = amount
			page.NetAmount = c.NetWithdrawal(amount)
		}
		writeJSON(w, http.StatusOK, page)
	}
}

type withdrawalForm struct {
	AccountID int64   `json:"accountId"`
	Amount    float64 `json:"amount"`
}

// WithdrawalHandler requests a withdrawal from accountId, or from the selected account when omitted.
func (s *Server) WithdrawalHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form withdrawalForm
		if !decodeBody(w, r, &form) {
			return
		}
		c := consoleFrom(r)
		if form.AccountID != 0 {
			if _, cached := c.Accounts().Find(form.AccountID); !cached {
				_, _ = c.FetchAccounts(r.Context())
			}
			if _, ok := c.SelectAccount(form.AccountID); !ok {
				writeJSON(w, http.StatusNotFound, errorBody{Error: "Account not found"})
				return
			}
		}
		tx, err := c.RequestWithdrawal(r.Context(), form.Amount)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, tx)
	}
}

func (s *Server) BalanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		balance, err := consoleFrom(r).FetchBalance(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, balance)
	}
}
