package entities

// Role identifiers issued by the payment backend.
const (
	RoleAdmin  = "ROLE_ADMIN"
	RoleClient = "ROLE_CLIENT"

	PermissionRead   = "READ"
	PermissionCreate = "CREATE"
	PermissionUpdate = "UPDATE"
	PermissionDelete = "DELETE"
)

type TransactionType int

const (
	TransactionDeposit TransactionType = iota
	TransactionWithdrawal
	TransactionRefund
)

var transactionTypeNames = map[TransactionType]string{
	TransactionDeposit:    "deposit",
	TransactionWithdrawal: "withdrawal",
	TransactionRefund:     "refund",
}

func (t TransactionType) String() string {
	if name, ok := transactionTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseTransactionType maps a lowercase type name back to its code.
func ParseTransactionType(name string) (TransactionType, bool) {
	for t, n := range transactionTypeNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

type TransactionStatus int

const (
	StatusPending TransactionStatus = iota
	StatusCompleted
	StatusRefunded
	StatusFailed
	StatusCancel
	StatusClose
)

var transactionStatusNames = map[TransactionStatus]string{
	StatusPending:   "pending",
	StatusCompleted: "completed",
	StatusRefunded:  "refunded",
	StatusFailed:    "failed",
	StatusCancel:    "cancel",
	StatusClose:     "close",
}

func (s TransactionStatus) String() string {
	if name, ok := transactionStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

type AccountStatus int

const (
	AccountActive AccountStatus = iota
	AccountInactive
	AccountSuspended
)

func (s AccountStatus) String() string {
	switch s {
	case AccountActive:
		return "active"
	case AccountInactive:
		return "inactive"
	case AccountSuspended:
		return "suspended"
	}
	return "unknown"
}

// Dashboard periods accepted by the trans/dashboard endpoint.
const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

func ValidPeriod(period string) bool {
	switch period {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodYear:
		return true
	}
	return false
}
