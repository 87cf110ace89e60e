package tasks

import (
	"context"

	"github.com/dmitrijs2005/ontop/internal/server/models"
)

// Repository stores a user's tasks as an ordered collection. ReplaceAll is
// not atomic on its own; callers run it inside a transaction.
type Repository interface {
	ReplaceAll(ctx context.Context, userID int64, tasks []models.Task) error
	ListByUser(ctx context.Context, userID int64) ([]models.Task, error)
	DeleteByUser(ctx context.Context, userID int64) error
}
