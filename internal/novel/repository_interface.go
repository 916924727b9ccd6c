package novel

import "context"

type Repository interface {
	Create(ctx context.Context, title, description, coverImage string, authorID int, price int64) (*Novel, error)
	GetByID(ctx context.Context, id int) (*Novel, error)
	Rename(ctx context.Context, id int, title string) (*Novel, error)
	ListForIndex(ctx context.Context) ([]Novel, error)
	IncrementViews(ctx context.Context, id int) error
	CreateChapter(ctx context.Context, novelID, number int, title string, price int64) (*Chapter, error)
	GetChapterByID(ctx context.Context, id int) (*Chapter, error)
}
