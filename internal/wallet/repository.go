package wallet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrWalletNotFound    = errors.New("wallet not found")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetOrCreateWallet(ctx context.Context, userID int) (*Wallet, error) {
	w := &Wallet{}
	err := r.db.GetContext(ctx, w, `SELECT * FROM wallets WHERE user_id = $1`, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// Two first-time requests can both miss the select; DO NOTHING lets the
	// loser fall through to the re-select instead of a unique violation.
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO wallets (user_id)
		 VALUES ($1)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return nil, err
	}

	if err := r.db.GetContext(ctx, w, `SELECT * FROM wallets WHERE user_id = $1`, userID); err != nil {
		return nil, err
	}

	return w, nil
}

func (r *repository) GetByUserID(ctx context.Context, userID int) (*Wallet, error) {
	w := &Wallet{}
	err := r.db.GetContext(ctx, w, `SELECT * FROM wallets WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *repository) Credit(ctx context.Context, userID int, amount int64, txType TransactionType, description string, idempotencyKey *string) (*Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return r.apply(ctx, userID, amount, txType, description, idempotencyKey)
}

func (r *repository) Debit(ctx context.Context, userID int, amount int64, txType TransactionType, description string) (*Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return r.apply(ctx, userID, -amount, txType, description, nil)
}

// apply runs one ledger mutation in its own database transaction.
func (r *repository) apply(ctx context.Context, userID int, amount int64, txType TransactionType, description string, idempotencyKey *string) (*Wallet, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	w, err := ApplyTx(ctx, tx, userID, amount, txType, description, idempotencyKey)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return w, nil
}

// ApplyTx mutates the wallet balance and writes the matching ledger entry
// inside the caller's transaction. The wallet row is locked for the whole
// unit so concurrent spends cannot observe the same starting balance.
// Callers composing multi-document units (settlement, unlock) reuse this
// so the wallet write and their own writes commit or abort together.
func ApplyTx(ctx context.Context, tx *sqlx.Tx, userID int, amount int64, txType TransactionType, description string, idempotencyKey *string) (*Wallet, error) {
	w, err := LockOrCreate(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	newBalance := w.Balance + amount
	if newBalance < 0 {
		return nil, ErrInsufficientFunds
	}

	spentDelta := int64(0)
	earnedDelta := int64(0)
	if amount < 0 {
		spentDelta = -amount
	} else if txType == TypePayout {
		earnedDelta = amount
	}

	err = tx.QueryRowxContext(ctx,
		`UPDATE wallets
		 SET balance = $1,
		     total_spent = total_spent + $2,
		     total_earned = total_earned + $3,
		     updated_at = NOW()
		 WHERE id = $4
		 RETURNING id, user_id, balance, total_spent, total_earned, currency, created_at, updated_at`,
		newBalance, spentDelta, earnedDelta, w.ID,
	).StructScan(w)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (wallet_id, user_id, amount, type, status, idempotency_key, description, balance_after)
		 VALUES ($1, $2, $3, $4, 'completed', $5, $6, $7)`,
		w.ID, userID, amount, txType, idempotencyKey, description, newBalance,
	)
	if err != nil {
		return nil, err
	}

	return w, nil
}

// LockOrCreate selects the wallet FOR UPDATE, creating it lazily on the
// first funding or purchase attempt.
func LockOrCreate(ctx context.Context, tx *sqlx.Tx, userID int) (*Wallet, error) {
	w := &Wallet{}
	err := tx.QueryRowxContext(ctx,
		`SELECT id, user_id, balance, total_spent, total_earned, currency, created_at, updated_at
		 FROM wallets
		 WHERE user_id = $1
		 FOR UPDATE`,
		userID,
	).StructScan(w)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	err = tx.QueryRowxContext(ctx,
		`INSERT INTO wallets (user_id)
		 VALUES ($1)
		 RETURNING id, user_id, balance, total_spent, total_earned, currency, created_at, updated_at`,
		userID,
	).StructScan(w)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *repository) GetTransactions(ctx context.Context, userID int, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	var txs []Transaction
	err := r.db.SelectContext(ctx, &txs, `
		SELECT id, wallet_id, user_id, amount, type, status, idempotency_key, description, balance_after, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	if txs == nil {
		txs = []Transaction{}
	}
	return txs, nil
}
