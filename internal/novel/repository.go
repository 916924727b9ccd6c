package novel

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrNovelNotFound   = errors.New("novel not found")
	ErrChapterNotFound = errors.New("chapter not found")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, title, description, coverImage string, authorID int, price int64) (*Novel, error) {
	n := &Novel{}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO novels (title, description, cover_image, author_id, price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, title, description, cover_image, author_id, is_published, views, price, created_at, updated_at
	`, title, description, coverImage, authorID, price).StructScan(n)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Novel, error) {
	n := &Novel{}
	err := r.db.GetContext(ctx, n, `SELECT * FROM novels WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNovelNotFound
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *repository) Rename(ctx context.Context, id int, title string) (*Novel, error) {
	n := &Novel{}
	err := r.db.QueryRowxContext(ctx, `
		UPDATE novels
		SET title = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, title, description, cover_image, author_id, is_published, views, price, created_at, updated_at
	`, title, id).StructScan(n)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNovelNotFound
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *repository) ListForIndex(ctx context.Context) ([]Novel, error) {
	novels := []Novel{}
	err := r.db.SelectContext(ctx, &novels, `
		SELECT id, title, description, cover_image, author_id, is_published, views, price, created_at, updated_at
		FROM novels
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	return novels, nil
}

// IncrementViews is a single atomic UPDATE, not read-then-save, so
// concurrent readers cannot lose counts.
func (r *repository) IncrementViews(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE novels SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNovelNotFound
	}
	return nil
}

func (r *repository) CreateChapter(ctx context.Context, novelID, number int, title string, price int64) (*Chapter, error) {
	ch := &Chapter{}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO chapters (novel_id, number, title, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, novel_id, number, title, price, created_at
	`, novelID, number, title, price).StructScan(ch)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (r *repository) GetChapterByID(ctx context.Context, id int) (*Chapter, error) {
	ch := &Chapter{}
	err := r.db.GetContext(ctx, ch, `SELECT * FROM chapters WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChapterNotFound
	}
	if err != nil {
		return nil, err
	}
	return ch, nil
}
