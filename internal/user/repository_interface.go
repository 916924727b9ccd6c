package user

import "context"

type Repository interface {
	Create(ctx context.Context, username, email, passwordHash, role string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	OwnsNovel(ctx context.Context, userID, novelID int) (bool, error)
	OwnsChapter(ctx context.Context, userID, chapterID int) (bool, error)
}
