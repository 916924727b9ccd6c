package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reosaurous172214/NovelNest-Backend/internal/metrics"
	"github.com/reosaurous172214/NovelNest-Backend/internal/user"
	"github.com/reosaurous172214/NovelNest-Backend/internal/wallet"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	// ErrDuplicateSettlement means the event was already settled. Callers
	// must acknowledge it as success so the provider stops retrying.
	ErrDuplicateSettlement = errors.New("settlement already processed")
	ErrUnknownPlan         = errors.New("unknown subscription plan")
	ErrInvalidEvent        = errors.New("malformed settlement event")
)

const uniqueViolation = "23505"

type Service interface {
	Settle(ctx context.Context, event SettlementEvent) error
	Plans() []Plan
}

type service struct {
	db *sqlx.DB
}

func NewService(db *sqlx.DB) Service {
	return &service{db: db}
}

func (s *service) Plans() []Plan {
	return getPlans()
}

// Settle translates one provider confirmation into ledger and entitlement
// state, exactly once. The idempotency check and every write share one
// database transaction, so a concurrent redelivery either sees the
// committed transaction row and no-ops, or loses on the unique index.
func (s *service) Settle(ctx context.Context, event SettlementEvent) error {
	if event.SessionID == "" || event.UserID <= 0 {
		return ErrInvalidEvent
	}

	var plan Plan
	switch event.Kind {
	case KindCurrencyTopup:
		if event.CoinAmount <= 0 {
			return ErrInvalidEvent
		}
	case KindSubscriptionUpgrade:
		var ok bool
		plan, ok = findPlan(event.PlanID)
		if !ok {
			return ErrUnknownPlan
		}
	default:
		return ErrInvalidEvent
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var seen bool
	err = tx.GetContext(ctx, &seen,
		`SELECT EXISTS(SELECT 1 FROM transactions WHERE idempotency_key = $1)`,
		event.SessionID)
	if err != nil {
		return err
	}
	if seen {
		metrics.RecordSettlement(string(event.Kind), "duplicate")
		return ErrDuplicateSettlement
	}

	switch event.Kind {
	case KindCurrencyTopup:
		err = s.settleTopup(ctx, tx, event)
	case KindSubscriptionUpgrade:
		err = s.settleUpgrade(ctx, tx, event, plan)
	}
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		// The unique index on idempotency_key is the backstop for the
		// race between the existence check and the insert.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			metrics.RecordSettlement(string(event.Kind), "duplicate")
			return ErrDuplicateSettlement
		}
		return err
	}

	metrics.RecordSettlement(string(event.Kind), "settled")
	return nil
}

func (s *service) settleTopup(ctx context.Context, tx *sqlx.Tx, event SettlementEvent) error {
	key := event.SessionID
	description := fmt.Sprintf("Bought %d NestCoins", event.CoinAmount)

	_, err := wallet.ApplyTx(ctx, tx, event.UserID, event.CoinAmount, wallet.TypeDeposit, description, &key)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateSettlement
		}
		return err
	}

	metrics.RecordDeposit()
	return nil
}

func (s *service) settleUpgrade(ctx context.Context, tx *sqlx.Tx, event SettlementEvent, plan Plan) error {
	now := time.Now()

	if err := user.SetSubscriptionTx(ctx, tx, event.UserID, plan.ID, now, plan.ExpiryFrom(now)); err != nil {
		return err
	}

	if plan.BonusNovels > 0 {
		if err := s.grantBonusNovels(ctx, tx, event.UserID, plan.BonusNovels); err != nil {
			return err
		}
	}

	// Audit entry only: the plan was paid through the provider, so the
	// wallet balance is untouched and balance_after records the snapshot.
	w, err := wallet.LockOrCreate(ctx, tx, event.UserID)
	if err != nil {
		return err
	}

	key := event.SessionID
	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (wallet_id, user_id, amount, type, status, idempotency_key, description, balance_after)
		 VALUES ($1, $2, $3, 'subscription', 'completed', $4, $5, $6)`,
		w.ID, event.UserID, plan.Price, key,
		fmt.Sprintf("Subscription upgrade: %s", plan.Name), w.Balance,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateSettlement
		}
		return err
	}

	metrics.RecordSubscription(plan.ID)
	return nil
}

// grantBonusNovels unlocks the top most-viewed novels. The candidates are
// picked without looking at the subscriber's owned-set: the set-semantics
// insert absorbs any novel already owned, so owning one of the top titles
// means one fewer new entitlement, not a substitute from further down the
// ranking.
func (s *service) grantBonusNovels(ctx context.Context, tx *sqlx.Tx, userID, limit int) error {
	var novelIDs []int
	err := tx.SelectContext(ctx, &novelIDs, `
		SELECT n.id
		FROM novels n
		WHERE n.is_published = true
		ORDER BY n.views DESC, n.id
		LIMIT $1
	`, limit)
	if err != nil {
		return err
	}

	for _, novelID := range novelIDs {
		if err := user.GrantNovelTx(ctx, tx, userID, novelID); err != nil {
			return err
		}
	}
	return nil
}
