package profiles

import (
	"context"

	"github.com/dmitrijs2005/ontop/internal/server/models"
)

// Repository keeps the singleton-per-user profile records. Get methods
// return (nil, nil) when the user has no profile yet.
type Repository interface {
	UpsertFitness(ctx context.Context, userID int64, p *models.FitnessProfile) error
	GetFitness(ctx context.Context, userID int64) (*models.FitnessProfile, error)
	DeleteFitness(ctx context.Context, userID int64) error

	UpsertFinance(ctx context.Context, userID int64, p *models.FinanceProfile) error
	GetFinance(ctx context.Context, userID int64) (*models.FinanceProfile, error)
	DeleteFinance(ctx context.Context, userID int64) error
}
