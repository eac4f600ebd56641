package models

import "time"

type TransactionType string

const (
	TransactionTypeEntry  TransactionType = "tournament_entry"
	TransactionTypeTopUp  TransactionType = "topup"
	TransactionTypePrize  TransactionType = "prize"
	TransactionTypeRefund TransactionType = "refund"
)

// Transaction is an append-only ledger entry. Amount is signed: debits
// are negative, credits positive.
type Transaction struct {
	ID          int             `json:"id" db:"id"`
	UserID      int             `json:"user_id" db:"user_id"`
	Type        TransactionType `json:"type" db:"type"`
	Amount      int64           `json:"amount" db:"amount"`
	Description string          `json:"description" db:"description"`
	Reference   *string         `json:"reference,omitempty" db:"reference"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}
