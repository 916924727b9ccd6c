package wallet

import "context"

type Repository interface {
	GetOrCreateWallet(ctx context.Context, userID int) (*Wallet, error)
	GetByUserID(ctx context.Context, userID int) (*Wallet, error)
	Credit(ctx context.Context, userID int, amount int64, txType TransactionType, description string, idempotencyKey *string) (*Wallet, error)
	Debit(ctx context.Context, userID int, amount int64, txType TransactionType, description string) (*Wallet, error)
	GetTransactions(ctx context.Context, userID int, limit, offset int) ([]Transaction, error)
}
