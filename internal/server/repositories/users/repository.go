package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/ontop/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	RecordLogin(ctx context.Context, id int64, at time.Time) error
	UpdatePremium(ctx context.Context, id int64, upd models.PremiumUpdate) error
	Delete(ctx context.Context, id int64) error
}
