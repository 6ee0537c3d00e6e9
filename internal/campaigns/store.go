package campaigns

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("campaign not found")
	// ErrDuplicateName enforces the case- and whitespace-insensitive
	// uniqueness of campaign names.
	ErrDuplicateName = errors.New("campaign name already exists")
)

type Store interface {
	List(ctx context.Context) ([]Campaign, error)
	Get(ctx context.Context, id int64) (Campaign, error)
	Create(ctx context.Context, n New) (Campaign, error)
	DeleteMany(ctx context.Context, ids []int64) (int, error)
}
