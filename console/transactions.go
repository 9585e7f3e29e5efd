package console

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-payment-console/apiclient"
	"github.com/jrsteele09/go-payment-console/entities"
	"github.com/jrsteele09/go-payment-console/internal/errors"
	"github.com/jrsteele09/go-payment-console/ui"
)

// CommissionRate is the signed-in client's commission percentage: from the loaded balance,
// else from the client's cached record, else zero.
func (s *Store) CommissionRate() float64 {
	if b := s.Balance(); b != nil {
		return b.Commission
	}
	state := s.session.State()
	if state.Identity == nil {
		return 0
	}
	for _, id := range []int64{state.Identity.UserID, state.Identity.ID} {
		if c, ok := s.clients.Find(id); ok && id != 0 {
			return c.CommissionRate
		}
	}
	return 0
}

// NetWithdrawal is what a withdrawal of amount pays out after commission.
func (s *Store) NetWithdrawal(amount float64) float64 {
	return entities.NetWithdrawal(amount, s.CommissionRate())
}

// RequestWithdrawal posts a withdrawal for the selected account.
func (s *Store) RequestWithdrawal(ctx context.Context, amount float64) (entities.Transaction, error) {
	const op = "transactions.withdraw"

	account, ok := s.accounts.Selected()
	if !ok {
		s.ui.ShowToast("Select an account first", ui.SeverityWarning)
		return entities.Transaction{}, errors.Mutation(op, "Select an account first", errors.ErrNoSelection)
	}
	req := entities.Withdrawal{
		AccountID:       account.ID,
		Amount:          amount,
		TransactionType: entities.TransactionWithdrawal,
		Currency:        account.CurrencyCode,
	}
	if err := entities.Validate(req); err != nil {
		return entities.Transaction{}, s.invalid(op, err)
	}
	if msg := withdrawalLimit(account, amount); msg != "" {
		s.ui.ShowToast(msg, ui.SeverityWarning)
		return entities.Transaction{}, errors.Mutation(op, msg, errors.ErrInvalidRequest)
	}

	created := entities.Transaction{
		AccountID: account.ID,
		Amount:    amount,
		Currency:  account.CurrencyCode,
		Type:      entities.TransactionWithdrawal,
		Status:    entities.StatusPending,
	}
	err := s.mutate(ctx, op, "Something went wrong!", "Transaction request made!", func(ctx context.Context) error {
		return s.api.Post(ctx, apiclient.EndpointTransactions, req, &created)
	})
	if err != nil {
		return entities.Transaction{}, err
	}
	if created.ID != 0 {
		s.transactions.AddLocal(created)
	}
	return created, nil
}

// withdrawalLimit caps a withdrawal at the account balance and, when one is set, the daily limit.
func withdrawalLimit(account entities.Account, amount float64) string {
	if amount > account.AccountBalance {
		return fmt.Sprintf("Amount exceeds the available balance of %.2f", account.AccountBalance)
	}
	if account.MaxDaily > 0 && amount > account.MaxDaily {
		return fmt.Sprintf("Amount exceeds the daily limit of %.2f", account.MaxDaily)
	}
	return ""
}

// RecordSubPayment adds a partial payment to a cached transaction. The transaction
// becomes completed once the payments cover its amount.
func (s *Store) RecordSubPayment(ctx context.Context, txID int64, paymentID string, amount float64) (entities.Transaction, error) {
	const op = "transactions.subPayment"

	if paymentID == "" || amount <= 0 {
		s.ui.ShowToast("Payment ID and a positive amount are required", ui.SeverityWarning)
		return entities.Transaction{}, errors.Mutation(op, "Payment ID and a positive amount are required", errors.ErrInvalidRequest)
	}
	tx, ok := s.transactions.Find(txID)
	if !ok {
		s.ui.ShowToast("Transaction not found", ui.SeverityError)
		return entities.Transaction{}, errors.Mutation(op, "Transaction not found", errors.ErrNotFound)
	}

	tx.SubPayments = append([]entities.SubPayment{}, tx.SubPayments...)
	tx.AddSubPayment(entities.SubPayment{ID: paymentID, Amount: amount, Date: s.now().UTC()})

	updated := tx
	err := s.mutate(ctx, op, "Recording payment failed", "Payment recorded", func(ctx context.Context) error {
		return s.api.Put(ctx, apiclient.EndpointTransactions, tx, &updated)
	})
	if err != nil {
		return entities.Transaction{}, err
	}
	s.transactions.UpdateLocal(updated)
	return updated, nil
}
