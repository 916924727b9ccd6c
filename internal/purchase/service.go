package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reosaurous172214/NovelNest-Backend/internal/email"
	"github.com/reosaurous172214/NovelNest-Backend/internal/logger"
	"github.com/reosaurous172214/NovelNest-Backend/internal/metrics"
	"github.com/reosaurous172214/NovelNest-Backend/internal/novel"
	"github.com/reosaurous172214/NovelNest-Backend/internal/user"
	"github.com/reosaurous172214/NovelNest-Backend/internal/wallet"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var (
	ErrAlreadyOwned   = errors.New("content already unlocked")
	ErrTargetNotFound = errors.New("content not found")
)

// Subscribers on a paid plan pay 40% of the nominal price; the author
// receives 70% of whatever was actually paid. Both products are truncated
// to whole coins.
var (
	subscriberRate = decimal.NewFromFloat(0.4)
	authorShare    = decimal.NewFromFloat(0.7)
)

type TargetKind string

const (
	TargetNovel   TargetKind = "novel"
	TargetChapter TargetKind = "chapter"
)

type Result struct {
	Target           TargetKind `json:"target"`
	TargetID         int        `json:"target_id"`
	Paid             int64      `json:"paid"`
	RemainingBalance int64      `json:"remaining_balance"`
}

type Service interface {
	UnlockNovel(ctx context.Context, buyerID, novelID int) (*Result, error)
	UnlockChapter(ctx context.Context, buyerID, chapterID int) (*Result, error)
}

type service struct {
	db           *sqlx.DB
	walletRepo   wallet.Repository
	novelRepo    novel.Repository
	userRepo     user.Repository
	emailService *email.Service
}

func NewService(
	db *sqlx.DB,
	walletRepo wallet.Repository,
	novelRepo novel.Repository,
	userRepo user.Repository,
	emailService *email.Service,
) Service {
	return &service{
		db:           db,
		walletRepo:   walletRepo,
		novelRepo:    novelRepo,
		userRepo:     userRepo,
		emailService: emailService,
	}
}

func (s *service) UnlockNovel(ctx context.Context, buyerID, novelID int) (*Result, error) {
	n, err := s.novelRepo.GetByID(ctx, novelID)
	if err != nil {
		return nil, ErrTargetNotFound
	}

	return s.unlock(ctx, buyerID, TargetNovel, n.ID, n.Price, n.AuthorID, n.Title)
}

func (s *service) UnlockChapter(ctx context.Context, buyerID, chapterID int) (*Result, error) {
	ch, err := s.novelRepo.GetChapterByID(ctx, chapterID)
	if err != nil {
		return nil, ErrTargetNotFound
	}

	n, err := s.novelRepo.GetByID(ctx, ch.NovelID)
	if err != nil {
		return nil, ErrTargetNotFound
	}

	return s.unlock(ctx, buyerID, TargetChapter, ch.ID, ch.Price, n.AuthorID, ch.Title)
}

// unlock debits the buyer, grants the entitlement and records the purchase
// in one database transaction, then routes the author's share as a separate
// ledger entry. Payout failure is logged, never surfaced to the buyer.
func (s *service) unlock(ctx context.Context, buyerID int, kind TargetKind, targetID int, nominalPrice int64, authorID int, title string) (*Result, error) {
	buyer, err := s.userRepo.FindByID(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	paid := nominalPrice
	if buyer.HasPaidSubscription(time.Now()) {
		paid = decimal.NewFromInt(nominalPrice).Mul(subscriberRate).IntPart()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	owned, err := s.ownedTx(ctx, tx, buyerID, kind, targetID)
	if err != nil {
		return nil, err
	}
	if owned {
		return nil, ErrAlreadyOwned
	}

	var remaining int64
	if paid > 0 {
		description := fmt.Sprintf("Unlocked %s: %s", kind, title)
		w, err := wallet.ApplyTx(ctx, tx, buyerID, -paid, wallet.TypePurchase, description, nil)
		if err != nil {
			return nil, err
		}
		remaining = w.Balance
	} else {
		// Fully discounted content still needs the entitlement, but a
		// zero-amount ledger entry would violate the amount invariant. The
		// balance is read under the same lock so the reported remainder
		// belongs to this atomic unit.
		w, err := wallet.LockOrCreate(ctx, tx, buyerID)
		if err != nil {
			return nil, err
		}
		remaining = w.Balance
	}

	if err := s.grantTx(ctx, tx, buyerID, kind, targetID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	metrics.RecordPurchase(string(kind))
	s.payAuthor(ctx, authorID, paid, title)

	if s.emailService != nil && paid > 0 {
		if err := s.emailService.SendPurchaseReceipt(ctx, buyer.Email, buyer.Username, title, paid); err != nil {
			logger.Errorf("Failed to queue purchase receipt for user %d: %v", buyerID, err)
		}
	}

	return &Result{
		Target:           kind,
		TargetID:         targetID,
		Paid:             paid,
		RemainingBalance: remaining,
	}, nil
}

func (s *service) ownedTx(ctx context.Context, tx *sqlx.Tx, buyerID int, kind TargetKind, targetID int) (bool, error) {
	if kind == TargetChapter {
		return user.OwnsChapterTx(ctx, tx, buyerID, targetID)
	}
	return user.OwnsNovelTx(ctx, tx, buyerID, targetID)
}

func (s *service) grantTx(ctx context.Context, tx *sqlx.Tx, buyerID int, kind TargetKind, targetID int) error {
	if kind == TargetChapter {
		return user.GrantChapterTx(ctx, tx, buyerID, targetID)
	}
	return user.GrantNovelTx(ctx, tx, buyerID, targetID)
}

// payAuthor credits the revenue share as its own ledger entry. The buyer's
// unlock has already committed, so failure here means the payment was not
// distributed, not that the purchase failed.
func (s *service) payAuthor(ctx context.Context, authorID int, paid int64, title string) {
	if paid <= 0 {
		return
	}

	earning := decimal.NewFromInt(paid).Mul(authorShare).IntPart()
	if earning <= 0 {
		return
	}

	description := fmt.Sprintf("Earnings from: %s", title)
	if _, err := s.walletRepo.Credit(ctx, authorID, earning, wallet.TypePayout, description, nil); err != nil {
		logger.Errorf("Payout not distributed to author %d for %q: %v", authorID, title, err)
		metrics.RecordAuthorPayout("failed")
		return
	}

	metrics.RecordAuthorPayout("paid")
}
