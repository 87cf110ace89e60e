// Package store is the Persistence Gateway: one contract for every server
// data operation, implemented over either the embedded SQLite backend or the
// networked PostgreSQL backend. The backend is chosen once by Open.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ontop/internal/common"
	"github.com/dmitrijs2005/ontop/internal/dbx"
	"github.com/dmitrijs2005/ontop/internal/logging"
	"github.com/dmitrijs2005/ontop/internal/server/models"
	"github.com/dmitrijs2005/ontop/internal/server/repositories/repomanager"
)

// Store is the backend-neutral data contract. Every error wraps one of the
// common sentinels so callers can classify it with errors.Is.
type Store interface {
	RegisterUser(ctx context.Context, u *models.User) (*models.User, error)
	LoginUser(ctx context.Context, email string) (*models.User, error)
	RecordLogin(ctx context.Context, userID int64) error
	GetUser(ctx context.Context, userID int64) (*models.User, error)

	SaveTasks(ctx context.Context, userID int64, tasks []models.Task) error
	GetTasks(ctx context.Context, userID int64) ([]models.Task, error)

	SaveFitnessProfile(ctx context.Context, userID int64, p *models.FitnessProfile) error
	GetFitnessProfile(ctx context.Context, userID int64) (*models.FitnessProfile, error)
	SaveFinanceProfile(ctx context.Context, userID int64, p *models.FinanceProfile) error
	GetFinanceProfile(ctx context.Context, userID int64) (*models.FinanceProfile, error)

	ExportUserData(ctx context.Context, userID int64) (*models.UserExport, error)
	DeleteUserData(ctx context.Context, userID int64) error

	UpdatePremiumStatus(ctx context.Context, userID int64, upd models.PremiumUpdate) error
	GetPremiumStatus(ctx context.Context, userID int64) (*models.PremiumStatus, error)

	Ping(ctx context.Context) error
	Close() error
}

// Gateway implements Store on top of a RepositoryManager. Multi-statement
// operations run in a single transaction on both backends.
type Gateway struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	logger logging.Logger
	now    func() time.Time
}

var _ Store = (*Gateway)(nil)

func NewGateway(db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger) *Gateway {
	return &Gateway{
		db:     db,
		rm:     rm,
		logger: logger.With("module", "store", "backend", rm.Dialect().String()),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Backend reports which backend this gateway talks to.
func (g *Gateway) Backend() dbx.Dialect { return g.rm.Dialect() }

func (g *Gateway) RegisterUser(ctx context.Context, u *models.User) (*models.User, error) {
	u.CreatedAt = g.now()
	created, err := g.rm.Users(g.db).Create(ctx, u)
	if err != nil {
		return nil, g.fail("register user", err)
	}
	return created, nil
}

func (g *Gateway) LoginUser(ctx context.Context, email string) (*models.User, error) {
	u, err := g.rm.Users(g.db).GetByEmail(ctx, email)
	if err != nil {
		return nil, g.fail("find user by email", err)
	}
	return u, nil
}

func (g *Gateway) RecordLogin(ctx context.Context, userID int64) error {
	return g.fail("record login", g.rm.Users(g.db).RecordLogin(ctx, userID, g.now()))
}

func (g *Gateway) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	u, err := g.rm.Users(g.db).GetByID(ctx, userID)
	if err != nil {
		return nil, g.fail("get user", err)
	}
	return u, nil
}

func (g *Gateway) SaveTasks(ctx context.Context, userID int64, tasks []models.Task) error {
	now := g.now()
	for i := range tasks {
		tasks[i].Normalize(now)
	}

	err := dbx.WithTx(ctx, g.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := g.rm.Users(tx).GetByID(ctx, userID); err != nil {
			return err
		}
		return g.rm.Tasks(tx).ReplaceAll(ctx, userID, tasks)
	})
	return g.fail("save tasks", err)
}

func (g *Gateway) GetTasks(ctx context.Context, userID int64) ([]models.Task, error) {
	tasks, err := g.rm.Tasks(g.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, g.fail("get tasks", err)
	}
	return tasks, nil
}

func (g *Gateway) SaveFitnessProfile(ctx context.Context, userID int64, p *models.FitnessProfile) error {
	p.UpdatedAt = g.now()
	return g.fail("save fitness profile", g.rm.Profiles(g.db).UpsertFitness(ctx, userID, p))
}

func (g *Gateway) GetFitnessProfile(ctx context.Context, userID int64) (*models.FitnessProfile, error) {
	p, err := g.rm.Profiles(g.db).GetFitness(ctx, userID)
	if err != nil {
		return nil, g.fail("get fitness profile", err)
	}
	return p, nil
}

func (g *Gateway) SaveFinanceProfile(ctx context.Context, userID int64, p *models.FinanceProfile) error {
	p.UpdatedAt = g.now()
	return g.fail("save finance profile", g.rm.Profiles(g.db).UpsertFinance(ctx, userID, p))
}

func (g *Gateway) GetFinanceProfile(ctx context.Context, userID int64) (*models.FinanceProfile, error) {
	p, err := g.rm.Profiles(g.db).GetFinance(ctx, userID)
	if err != nil {
		return nil, g.fail("get finance profile", err)
	}
	return p, nil
}

// ExportUserData reads every record of the user inside one transaction so
// the snapshot is consistent.
func (g *Gateway) ExportUserData(ctx context.Context, userID int64) (*models.UserExport, error) {
	var export *models.UserExport

	err := dbx.WithTx(ctx, g.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := g.rm.Users(tx).GetByID(ctx, userID)
		if err != nil {
			return err
		}
		tasks, err := g.rm.Tasks(tx).ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		fitness, err := g.rm.Profiles(tx).GetFitness(ctx, userID)
		if err != nil {
			return err
		}
		finances, err := g.rm.Profiles(tx).GetFinance(ctx, userID)
		if err != nil {
			return err
		}

		export = models.NewUserExport(u, tasks, fitness, finances, g.now())
		return nil
	})
	if err != nil {
		return nil, g.fail("export user data", err)
	}

	return export, nil
}

// DeleteUserData removes dependents before the user row, all or nothing.
func (g *Gateway) DeleteUserData(ctx context.Context, userID int64) error {
	err := dbx.WithTx(ctx, g.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		p := g.rm.Profiles(tx)
		if err := p.DeleteFinance(ctx, userID); err != nil {
			return err
		}
		if err := p.DeleteFitness(ctx, userID); err != nil {
			return err
		}
		if err := g.rm.Tasks(tx).DeleteByUser(ctx, userID); err != nil {
			return err
		}
		return g.rm.Users(tx).Delete(ctx, userID)
	})
	if err != nil {
		return g.fail("delete user data", err)
	}

	g.logger.Info(ctx, "user data deleted", "user_id", userID)
	return nil
}

func (g *Gateway) UpdatePremiumStatus(ctx context.Context, userID int64, upd models.PremiumUpdate) error {
	return g.fail("update premium status", g.rm.Users(g.db).UpdatePremium(ctx, userID, upd))
}

func (g *Gateway) GetPremiumStatus(ctx context.Context, userID int64) (*models.PremiumStatus, error) {
	u, err := g.rm.Users(g.db).GetByID(ctx, userID)
	if err != nil {
		return nil, g.fail("get premium status", err)
	}
	return models.EffectivePremium(u, g.now()), nil
}

func (g *Gateway) Ping(ctx context.Context) error {
	if err := g.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w: %w", common.ErrUnavailable, err)
	}
	return nil
}

func (g *Gateway) Close() error {
	return g.db.Close()
}

// fail wraps err with op and exactly one common sentinel.
func (g *Gateway) fail(op string, err error) error {
	if err == nil {
		return nil
	}

	for _, known := range []error{common.ErrNotFound, common.ErrConflict, common.ErrUnavailable} {
		if errors.Is(err, known) {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if sentinel := g.rm.TranslateError(err); sentinel != nil {
		return fmt.Errorf("%s: %w: %w", op, sentinel, err)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%s: %w: %w", op, common.ErrUnavailable, err)
	}

	return fmt.Errorf("%s: %w: %w", op, common.ErrInternal, err)
}
