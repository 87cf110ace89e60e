package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/ontop/internal/common"
	"github.com/dmitrijs2005/ontop/internal/logging"
	"github.com/dmitrijs2005/ontop/internal/server/backup"
	"github.com/dmitrijs2005/ontop/internal/server/models"
	"github.com/dmitrijs2005/ontop/internal/server/store"
)

// BackupStore is the object storage used for export snapshots.
type BackupStore interface {
	Put(ctx context.Context, key string, body []byte) error
	PresignGet(ctx context.Context, key string) (string, error)
}

type BackupResult struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// DataService owns the per-user Domain Records. Writes replace the stored
// value as a whole; the last write wins.
type DataService struct {
	store   store.Store
	backups BackupStore
	logger  logging.Logger
	now     func() time.Time
}

// NewDataService builds the service; a nil backups disables Backup.
func NewDataService(st store.Store, backups BackupStore, logger logging.Logger) *DataService {
	return &DataService{
		store:   st,
		backups: backups,
		logger:  logger.With("module", "data"),
		now:     time.Now,
	}
}

var taskPriorities = map[string]bool{"": true, "low": true, "medium": true, "high": true}

func (s *DataService) SaveTasks(ctx context.Context, userID int64, tasks []models.Task) error {
	for i, t := range tasks {
		if strings.TrimSpace(t.Title) == "" {
			return fmt.Errorf("%w: task %d has no title", common.ErrValidation, i)
		}
		if !taskPriorities[t.Priority] {
			return fmt.Errorf("%w: task %d has unknown priority %q", common.ErrValidation, i, t.Priority)
		}
	}
	return s.store.SaveTasks(ctx, userID, tasks)
}

func (s *DataService) GetTasks(ctx context.Context, userID int64) ([]models.Task, error) {
	return s.store.GetTasks(ctx, userID)
}

func (s *DataService) SaveFitness(ctx context.Context, userID int64, p *models.FitnessProfile) error {
	for name, v := range map[string]*float64{"currentWeight": p.CurrentWeight, "targetWeight": p.TargetWeight, "height": p.Height} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: %s must not be negative", common.ErrValidation, name)
		}
	}
	if err := validDocuments(p.Goals, p.WorkoutHistory, p.MealHistory); err != nil {
		return err
	}
	return s.store.SaveFitnessProfile(ctx, userID, p)
}

func (s *DataService) GetFitness(ctx context.Context, userID int64) (*models.FitnessProfile, error) {
	return s.store.GetFitnessProfile(ctx, userID)
}

func (s *DataService) SaveFinances(ctx context.Context, userID int64, p *models.FinanceProfile) error {
	if p.MonthlyIncome < 0 {
		return fmt.Errorf("%w: monthlyIncome must not be negative", common.ErrValidation)
	}
	if err := validDocuments(p.Bills, p.Goals, p.Expenses, p.Budgets); err != nil {
		return err
	}
	return s.store.SaveFinanceProfile(ctx, userID, p)
}

func (s *DataService) GetFinances(ctx context.Context, userID int64) (*models.FinanceProfile, error) {
	return s.store.GetFinanceProfile(ctx, userID)
}

func (s *DataService) Export(ctx context.Context, userID int64) (*models.UserExport, error) {
	return s.store.ExportUserData(ctx, userID)
}

func (s *DataService) DeleteAccount(ctx context.Context, userID int64) error {
	return s.store.DeleteUserData(ctx, userID)
}

func (s *DataService) PremiumStatus(ctx context.Context, userID int64) (*models.PremiumStatus, error) {
	return s.store.GetPremiumStatus(ctx, userID)
}

func (s *DataService) UpdatePremium(ctx context.Context, userID int64, upd models.PremiumUpdate) error {
	if err := s.store.UpdatePremiumStatus(ctx, userID, upd); err != nil {
		return err
	}
	s.logger.Info(ctx, "premium status updated", "user_id", userID, "premium", upd.IsPremium, "plan", upd.Plan)
	return nil
}

// Backup uploads a full export of the user and returns a download link.
func (s *DataService) Backup(ctx context.Context, userID int64) (*BackupResult, error) {
	if s.backups == nil {
		return nil, common.ErrBackupDisabled
	}

	export, err := s.store.ExportUserData(ctx, userID)
	if err != nil {
		return nil, err
	}

	body, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: encode export: %w", common.ErrInternal, err)
	}

	now := s.now()
	key := backup.Key(userID, now)
	if err := s.backups.Put(ctx, key, body); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUnavailable, err)
	}

	url, err := s.backups.PresignGet(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInternal, err)
	}

	s.logger.Info(ctx, "backup created", "user_id", userID, "key", key)
	return &BackupResult{Key: key, URL: url, ExpiresAt: now.Add(backup.LinkTTL)}, nil
}

func validDocuments(docs ...json.RawMessage) error {
	for _, d := range docs {
		if len(d) > 0 && !json.Valid(d) {
			return fmt.Errorf("%w: malformed JSON document", common.ErrValidation)
		}
	}
	return nil
}
