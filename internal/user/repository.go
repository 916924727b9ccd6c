package user

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrUserNotFound = errors.New("user not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, username, email, passwordHash, role string) (*User, error) {
	query := `
		INSERT INTO users (username, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, email, password_hash, role, subscription_plan, subscription_status, subscribed_at, subscription_end, created_at
	`

	var user User
	err := r.db.GetContext(ctx, &user, query, username, email, passwordHash, role)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, username, email, password_hash, role, subscription_plan, subscription_status, subscribed_at, subscription_end, created_at
		FROM users
		WHERE email = $1
	`

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) FindByID(ctx context.Context, id int) (*User, error) {
	query := `
		SELECT id, username, email, password_hash, role, subscription_plan, subscription_status, subscribed_at, subscription_end, created_at
		FROM users
		WHERE id = $1
	`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, email)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *repository) OwnsNovel(ctx context.Context, userID, novelID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM unlocked_novels WHERE user_id = $1 AND novel_id = $2)`,
		userID, novelID)
	return exists, err
}

func (r *repository) OwnsChapter(ctx context.Context, userID, chapterID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM unlocked_chapters WHERE user_id = $1 AND chapter_id = $2)`,
		userID, chapterID)
	return exists, err
}

/*
In-transaction helpers. The settlement coordinator and the unlock routine
mutate the owned-sets and subscription fields inside their own multi-step
database transactions, so these take the caller's tx.
*/

// OwnsNovelTx checks the owned-set inside the caller's transaction.
func OwnsNovelTx(ctx context.Context, tx *sqlx.Tx, userID, novelID int) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM unlocked_novels WHERE user_id = $1 AND novel_id = $2)`,
		userID, novelID)
	return exists, err
}

func OwnsChapterTx(ctx context.Context, tx *sqlx.Tx, userID, chapterID int) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM unlocked_chapters WHERE user_id = $1 AND chapter_id = $2)`,
		userID, chapterID)
	return exists, err
}

// GrantNovelTx adds a novel to the owned-set with set semantics: granting
// an already-owned novel is a no-op, never a duplicate row.
func GrantNovelTx(ctx context.Context, tx *sqlx.Tx, userID, novelID int) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO unlocked_novels (user_id, novel_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, novel_id) DO NOTHING`,
		userID, novelID)
	return err
}

func GrantChapterTx(ctx context.Context, tx *sqlx.Tx, userID, chapterID int) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO unlocked_chapters (user_id, chapter_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, chapter_id) DO NOTHING`,
		userID, chapterID)
	return err
}

// SetSubscriptionTx writes the subscription fields inside the caller's
// transaction.
func SetSubscriptionTx(ctx context.Context, tx *sqlx.Tx, userID int, plan string, start, end time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE users
		 SET subscription_plan = $1,
		     subscription_status = 'active',
		     subscribed_at = $2,
		     subscription_end = $3
		 WHERE id = $4`,
		plan, start, end, userID)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}
