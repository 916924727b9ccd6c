package wallet

import "time"

// Currency unit is the smallest denomination of the in-platform coin.
const Currency = "NestCoin"

type TransactionType string

type TransactionStatus string

const (
	TypeDeposit      TransactionType = "deposit"
	TypePurchase     TransactionType = "purchase"
	TypePayout       TransactionType = "payout"
	TypeBonus        TransactionType = "bonus"
	TypeWithdrawal   TransactionType = "withdrawal"
	TypeSubscription TransactionType = "subscription"

	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

type Wallet struct {
	ID          int       `db:"id" json:"id"`
	UserID      int       `db:"user_id" json:"user_id"`
	Balance     int64     `db:"balance" json:"balance"`
	TotalSpent  int64     `db:"total_spent" json:"total_spent"`
	TotalEarned int64     `db:"total_earned" json:"total_earned"`
	Currency    string    `db:"currency" json:"currency"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction is an append-only ledger entry. Amount is signed:
// positive for credits, negative for debits. BalanceAfter is the
// wallet balance snapshot taken in the same database transaction.
type Transaction struct {
	ID             int               `db:"id" json:"id"`
	WalletID       int               `db:"wallet_id" json:"wallet_id"`
	UserID         int               `db:"user_id" json:"user_id"`
	Amount         int64             `db:"amount" json:"amount"`
	Type           TransactionType   `db:"type" json:"type"`
	Status         TransactionStatus `db:"status" json:"status"`
	IdempotencyKey *string           `db:"idempotency_key" json:"idempotency_key,omitempty"`
	Description    string            `db:"description" json:"description"`
	BalanceAfter   int64             `db:"balance_after" json:"balance_after"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
}
