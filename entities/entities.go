// Package entities holds the payment backend's resource shapes as the console caches them.
package entities

import "time"

type Client struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name" validate:"required"`
	Email          string  `json:"email" validate:"required,email"`
	Active         bool    `json:"active"`
	LastActive     string  `json:"lastActive,omitempty"`
	CommissionRate float64 `json:"commissionRate" validate:"gte=0,lte=100"`
	Password       string  `json:"password,omitempty"`
}

func (c Client) EntityID() int64 { return c.ID }

type Account struct {
	ID             int64         `json:"id"`
	ClientID       int64         `json:"clientId,omitempty"`
	Name           string        `json:"name" validate:"required"`
	Bank           string        `json:"bank" validate:"required"`
	AccountNumber  string        `json:"accountNumber" validate:"required"`
	Token          string        `json:"token,omitempty"`
	Status         AccountStatus `json:"status"`
	CurrencyCode   string        `json:"currencyCode,omitempty"`
	AccountBalance float64       `json:"accountBalance"`
	MaxDaily       float64       `json:"maxDaily,omitempty"`
	MaxMonthly     float64       `json:"maxMonthly,omitempty"`
	HasQRCode      bool          `json:"hasQrCode,omitempty"`
}

func (a Account) EntityID() int64 { return a.ID }

type Package struct {
	ID          int64   `json:"id"`
	AccountID   int64   `json:"accountId" validate:"required"`
	Tier        string  `json:"tier" validate:"required"`
	ServiceFee  float64 `json:"serviceFee" validate:"gt=0"`
	Requirement string  `json:"requirement" validate:"required"`
}

func (p Package) EntityID() int64 { return p.ID }

type Role struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions,omitempty"`
}

func (r Role) EntityID() int64 { return r.ID }

type SubPayment struct {
	ID     string    `json:"id"`
	Amount float64   `json:"amount"`
	Date   time.Time `json:"date"`
}

type Transaction struct {
	ID                 int64             `json:"id"`
	Reference          string            `json:"reference,omitempty"`
	AccountID          int64             `json:"accountId,omitempty"`
	Amount             float64           `json:"amount"`
	Currency           string            `json:"currency,omitempty"`
	Type               TransactionType   `json:"transactionType"`
	Status             TransactionStatus `json:"status"`
	Date               string            `json:"date,omitempty"`
	TransactionAccount *Account          `json:"transactionAccount,omitempty"`
	SubPayments        []SubPayment      `json:"subPayments,omitempty"`
	Cancelled          bool              `json:"cancelled,omitempty"`
}

func (t Transaction) EntityID() int64 { return t.ID }

func (t Transaction) TotalPaid() float64 {
	var total float64
	for _, p := range t.SubPayments {
		total += p.Amount
	}
	return total
}

func (t Transaction) Remaining() float64 {
	return t.Amount - t.TotalPaid()
}

// InProgress reports a partially paid transaction.
func (t Transaction) InProgress() bool {
	paid := t.TotalPaid()
	return paid > 0 && paid < t.Amount
}

// AddSubPayment appends a payment and marks the transaction completed once it is fully paid.
func (t *Transaction) AddSubPayment(p SubPayment) {
	t.SubPayments = append(t.SubPayments, p)
	if t.TotalPaid() >= t.Amount {
		t.Status = StatusCompleted
	}
}

type Dashboard struct {
	TotalDeposit       float64       `json:"totalDeposit"`
	TotalWithdrawal    float64       `json:"totalWithdrawal"`
	TransactionCount   int64         `json:"transactionCount"`
	RecentTransactions []Transaction `json:"recentTransactions"`
}

type Balance struct {
	UserID     int64   `json:"userId"`
	Balance    float64 `json:"balance"`
	Commission float64 `json:"commission"`
}

type Profile struct {
	ID          int64  `json:"id"`
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	LastUpdated string `json:"lastUpdated,omitempty"`
}

type PasswordChange struct {
	Username         string `json:"username" validate:"required,email"`
	CurrentPassword  string `json:"currentPassword,omitempty"`
	Password         string `json:"password" validate:"required,min=8"`
	MatchingPassword string `json:"matchingPassword" validate:"required,eqfield=Password"`
}

type Withdrawal struct {
	AccountID       int64           `json:"accountId"`
	Amount          float64         `json:"amount" validate:"gt=0"`
	TransactionType TransactionType `json:"transactionType"`
	Currency        string          `json:"currency"`
}

type Threshold struct {
	AccountID  int64   `json:"accountId" validate:"required"`
	MaxDaily   float64 `json:"maxDaily" validate:"gte=0"`
	MaxMonthly float64 `json:"maxMonthly" validate:"gte=0,gtefield=MaxDaily"`
}

// TransactionQuery is the trans/query request body.
type TransactionQuery struct {
	Page            int              `json:"page"`
	Size            int              `json:"size"`
	TransactionType *TransactionType `json:"transactionType,omitempty"`
	Period          string           `json:"period,omitempty"`
	AccountID       int64            `json:"accountId,omitempty"`
}

func DefaultTransactionQuery() TransactionQuery {
	return TransactionQuery{Page: 1, Size: 10}
}

// NetWithdrawal is the amount paid out after the client's commission.
func NetWithdrawal(amount, commissionRate float64) float64 {
	return amount * (100 - commissionRate) / 100
}
