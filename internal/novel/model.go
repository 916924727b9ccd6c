package novel

import "time"

type Novel struct {
	ID          int       `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	CoverImage  string    `db:"cover_image" json:"cover_image"`
	AuthorID    int       `db:"author_id" json:"author_id"`
	IsPublished bool      `db:"is_published" json:"is_published"`
	Views       int64     `db:"views" json:"views"`
	Price       int64     `db:"price" json:"price"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Chapter price is in coins; zero means the chapter is free to read.
type Chapter struct {
	ID        int       `db:"id" json:"id"`
	NovelID   int       `db:"novel_id" json:"novel_id"`
	Number    int       `db:"number" json:"number"`
	Title     string    `db:"title" json:"title"`
	Price     int64     `db:"price" json:"price"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
