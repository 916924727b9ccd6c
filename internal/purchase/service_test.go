package purchase

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/reosaurous172214/NovelNest-Backend/internal/novel"
	"github.com/reosaurous172214/NovelNest-Backend/internal/user"
	"github.com/reosaurous172214/NovelNest-Backend/internal/wallet"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

var (
	novelColumns  = []string{"id", "title", "description", "cover_image", "author_id", "is_published", "views", "price", "created_at", "updated_at"}
	userColumns   = []string{"id", "username", "email", "password_hash", "role", "subscription_plan", "subscription_status", "subscribed_at", "subscription_end", "created_at"}
	walletColumns = []string{"id", "user_id", "balance", "total_spent", "total_earned", "currency", "created_at", "updated_at"}
)

func setupPurchaseMock(t *testing.T) (Service, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	svc := NewService(
		sqlxDB,
		wallet.NewRepository(sqlxDB),
		novel.NewRepository(sqlxDB),
		user.NewRepository(sqlxDB),
		nil,
	)

	closer := func() { sqlxDB.Close() }
	return svc, mock, closer
}

func novelRow(id int, authorID int, price int64) *sqlmock.Rows {
	return sqlmock.NewRows(novelColumns).
		AddRow(id, "Dragon Heart", "", "", authorID, true, 100, price, time.Now(), time.Now())
}

func readerRow(id int) *sqlmock.Rows {
	return sqlmock.NewRows(userColumns).
		AddRow(id, "reader1", "reader1@example.com", "hash", user.RoleReader, user.PlanFree, "", nil, nil, time.Now())
}

func subscriberRow(id int) *sqlmock.Rows {
	subscribedAt := time.Now().Add(-24 * time.Hour)
	subscriptionEnd := time.Now().Add(29 * 24 * time.Hour)
	return sqlmock.NewRows(userColumns).
		AddRow(id, "sub1", "sub1@example.com", "hash", user.RoleReader, "monthly", user.SubscriptionActive, subscribedAt, subscriptionEnd, time.Now())
}

func walletRow(id, userID int, balance, spent, earned int64) *sqlmock.Rows {
	return sqlmock.NewRows(walletColumns).
		AddRow(id, userID, balance, spent, earned, wallet.Currency, time.Now(), time.Now())
}

func TestUnlockNovel_FullPrice(t *testing.T) {
	svc, mock, close := setupPurchaseMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM novels WHERE id = $1")).
		WithArgs(3).
		WillReturnRows(novelRow(3, 2, 500))

	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs(10).
		WillReturnRows(readerRow(10))

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM unlocked_novels WHERE user_id = $1 AND novel_id = $2)")).
		WithArgs(10, 3).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(10).
		WillReturnRows(walletRow(7, 10, 1000, 0, 0))

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE wallets")).
		WithArgs(int64(500), int64(500), int64(0), 7).
		WillReturnRows(walletRow(7, 10, 500, 500, 0))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WithArgs(7, 10, int64(-500), wallet.TypePurchase, nil, "Unlocked novel: Dragon Heart", int64(500)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO unlocked_novels")).
		WithArgs(10, 3).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectCommit()

	// Доля автора: 70% от уплаченного, отдельной проводкой
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(2).
		WillReturnRows(walletRow(8, 2, 0, 0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE wallets")).
		WithArgs(int64(350), int64(0), int64(350), 8).
		WillReturnRows(walletRow(8, 2, 350, 0, 350))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WithArgs(8, 2, int64(350), wallet.TypePayout, nil, "Earnings from: Dragon Heart", int64(350)).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	result, err := svc.UnlockNovel(context.Background(), 10, 3)
	require.NoError(t, err)
	require.Equal(t, TargetNovel, result.Target)
	require.Equal(t, int64(500), result.Paid)
	require.Equal(t, int64(500), result.RemainingBalance)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnlockNovel_SubscriberDiscountTruncates(t *testing.T) {
	svc, mock, close := setupPurchaseMock(t)
	defer close()

	// 499 * 0.4 = 199.6 -> 199 coins, author gets 199 * 0.7 = 139.3 -> 139
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM novels WHERE id = $1")).
		WithArgs(3).
		WillReturnRows(novelRow(3, 2, 499))

	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs(10).
		WillReturnRows(subscriberRow(10))

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM unlocked_novels")).
		WithArgs(10, 3).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(10).
		WillReturnRows(walletRow(7, 10, 1000, 0, 0))

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE wallets")).
		WithArgs(int64(801), int64(199), int64(0), 7).
		WillReturnRows(walletRow(7, 10, 801, 199, 0))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WithArgs(7, 10, int64(-199), wallet.TypePurchase, nil, "Unlocked novel: Dragon Heart", int64(801)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO unlocked_novels")).
		WithArgs(10, 3).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(2).
		WillReturnRows(walletRow(8, 2, 0, 0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE wallets")).
		WithArgs(int64(139), int64(0), int64(139), 8).
		WillReturnRows(walletRow(8, 2, 139, 0, 139))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WithArgs(8, 2, int64(139), wallet.TypePayout, nil, "Earnings from: Dragon Heart", int64(139)).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	result, err := svc.UnlockNovel(context.Background(), 10, 3)
	require.NoError(t, err)
	require.Equal(t, int64(199), result.Paid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnlockNovel_AlreadyOwned(t *testing.T) {
	svc, mock, close := setupPurchaseMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM novels WHERE id = $1")).
		WithArgs(3).
		WillReturnRows(novelRow(3, 2, 500))

	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs(10).
		WillReturnRows(readerRow(10))

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM unlocked_novels")).
		WithArgs(10, 3).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	mock.ExpectRollback()

	_, err := svc.UnlockNovel(context.Background(), 10, 3)
	require.ErrorIs(t, err, ErrAlreadyOwned)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnlockNovel_InsufficientFunds(t *testing.T) {
	svc, mock, close := setupPurchaseMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM novels WHERE id = $1")).
		WithArgs(3).
		WillReturnRows(novelRow(3, 2, 500))

	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs(10).
		WillReturnRows(readerRow(10))

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM unlocked_novels")).
		WithArgs(10, 3).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(10).
		WillReturnRows(walletRow(7, 10, 100, 0, 0))

	mock.ExpectRollback()

	_, err := svc.UnlockNovel(context.Background(), 10, 3)
	require.ErrorIs(t, err, wallet.ErrInsufficientFunds)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnlockNovel_NotFound(t *testing.T) {
	svc, mock, close := setupPurchaseMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM novels WHERE id = $1")).
		WithArgs(404).
		WillReturnError(novel.ErrNovelNotFound)

	_, err := svc.UnlockNovel(context.Background(), 10, 404)
	require.ErrorIs(t, err, ErrTargetNotFound)
}

func TestUnlockNovel_FreeForSubscriberSkipsLedger(t *testing.T) {
	svc, mock, close := setupPurchaseMock(t)
	defer close()

	// 1 * 0.4 truncates to 0: entitlement is granted without a ledger entry
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM novels WHERE id = $1")).
		WithArgs(3).
		WillReturnRows(novelRow(3, 2, 1))

	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs(10).
		WillReturnRows(subscriberRow(10))

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM unlocked_novels")).
		WithArgs(10, 3).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	// Баланс читается под тем же локом, что и грант
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(10).
		WillReturnRows(walletRow(7, 10, 1000, 0, 0))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO unlocked_novels")).
		WithArgs(10, 3).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectCommit()

	result, err := svc.UnlockNovel(context.Background(), 10, 3)
	require.NoError(t, err)
	require.Equal(t, int64(0), result.Paid)
	require.Equal(t, int64(1000), result.RemainingBalance)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnlockNovel_PayoutFailureDoesNotFailPurchase(t *testing.T) {
	svc, mock, close := setupPurchaseMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM novels WHERE id = $1")).
		WithArgs(3).
		WillReturnRows(novelRow(3, 2, 500))

	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs(10).
		WillReturnRows(readerRow(10))

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM unlocked_novels")).
		WithArgs(10, 3).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(10).
		WillReturnRows(walletRow(7, 10, 1000, 0, 0))

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE wallets")).
		WithArgs(int64(500), int64(500), int64(0), 7).
		WillReturnRows(walletRow(7, 10, 500, 500, 0))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WithArgs(7, 10, int64(-500), wallet.TypePurchase, nil, "Unlocked novel: Dragon Heart", int64(500)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO unlocked_novels")).
		WithArgs(10, 3).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectCommit()

	// The payout transaction fails to even begin; the buyer still gets the unlock
	mock.ExpectBegin().WillReturnError(context.DeadlineExceeded)

	result, err := svc.UnlockNovel(context.Background(), 10, 3)
	require.NoError(t, err)
	require.Equal(t, int64(500), result.Paid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnlockChapter_FullPrice(t *testing.T) {
	svc, mock, close := setupPurchaseMock(t)
	defer close()

	chapterColumns := []string{"id", "novel_id", "number", "title", "price", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM chapters WHERE id = $1")).
		WithArgs(12).
		WillReturnRows(sqlmock.NewRows(chapterColumns).AddRow(12, 3, 5, "Chapter Five", 50, time.Now()))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM novels WHERE id = $1")).
		WithArgs(3).
		WillReturnRows(novelRow(3, 2, 500))

	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs(10).
		WillReturnRows(readerRow(10))

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM unlocked_chapters")).
		WithArgs(10, 12).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(10).
		WillReturnRows(walletRow(7, 10, 1000, 0, 0))

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE wallets")).
		WithArgs(int64(950), int64(50), int64(0), 7).
		WillReturnRows(walletRow(7, 10, 950, 50, 0))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WithArgs(7, 10, int64(-50), wallet.TypePurchase, nil, "Unlocked chapter: Chapter Five", int64(950)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO unlocked_chapters")).
		WithArgs(10, 12).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(2).
		WillReturnRows(walletRow(8, 2, 0, 0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE wallets")).
		WithArgs(int64(35), int64(0), int64(35), 8).
		WillReturnRows(walletRow(8, 2, 35, 0, 35))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WithArgs(8, 2, int64(35), wallet.TypePayout, nil, "Earnings from: Chapter Five", int64(35)).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	result, err := svc.UnlockChapter(context.Background(), 10, 12)
	require.NoError(t, err)
	require.Equal(t, TargetChapter, result.Target)
	require.Equal(t, int64(50), result.Paid)
	require.NoError(t, mock.ExpectationsWereMet())
}
