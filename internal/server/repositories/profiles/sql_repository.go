package profiles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ontop/internal/dbx"
	"github.com/dmitrijs2005/ontop/internal/server/models"
)

type SQLRepository struct {
	db dbx.DBTX
	d  dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, d dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, d: d}
}

func (r *SQLRepository) UpsertFitness(ctx context.Context, userID int64, p *models.FitnessProfile) error {
	query :=
		`INSERT INTO user_fitness (user_id, current_weight, target_weight, height, age, gender,
		                           activity_level, fitness_goals, daily_calories, daily_protein,
		                           workout_history, meal_history, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		     current_weight = excluded.current_weight,
		     target_weight = excluded.target_weight,
		     height = excluded.height,
		     age = excluded.age,
		     gender = excluded.gender,
		     activity_level = excluded.activity_level,
		     fitness_goals = excluded.fitness_goals,
		     daily_calories = excluded.daily_calories,
		     daily_protein = excluded.daily_protein,
		     workout_history = excluded.workout_history,
		     meal_history = excluded.meal_history,
		     updated_at = excluded.updated_at`

	now := stamp(p.UpdatedAt)
	_, err := r.db.ExecContext(ctx, r.d.Rebind(query),
		userID, p.CurrentWeight, p.TargetWeight, p.Height, p.Age, p.Gender,
		p.ActivityLevel, models.JSONOr(p.Goals, "[]"), p.DailyCalories, p.DailyProtein,
		models.JSONOr(p.WorkoutHistory, "[]"), models.JSONOr(p.MealHistory, "[]"), now, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *SQLRepository) GetFitness(ctx context.Context, userID int64) (*models.FitnessProfile, error) {
	query :=
		`SELECT current_weight, target_weight, height, age, gender, activity_level, fitness_goals,
		        daily_calories, daily_protein, workout_history, meal_history, updated_at
		 FROM user_fitness
		 WHERE user_id = ?`

	var (
		p                      models.FitnessProfile
		cur, target, height    sql.NullFloat64
		age, calories, protein sql.NullInt64
		goals, workouts, meals string
	)

	err := r.db.QueryRowContext(ctx, r.d.Rebind(query), userID).Scan(
		&cur, &target, &height, &age, &p.Gender, &p.ActivityLevel, &goals,
		&calories, &protein, &workouts, &meals, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	p.CurrentWeight = floatPtr(cur)
	p.TargetWeight = floatPtr(target)
	p.Height = floatPtr(height)
	p.Age = intPtr(age)
	p.DailyCalories = intPtr(calories)
	p.DailyProtein = intPtr(protein)
	p.Goals = json.RawMessage(goals)
	p.WorkoutHistory = json.RawMessage(workouts)
	p.MealHistory = json.RawMessage(meals)

	return &p, nil
}

func (r *SQLRepository) DeleteFitness(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, r.d.Rebind(`DELETE FROM user_fitness WHERE user_id = ?`), userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) UpsertFinance(ctx context.Context, userID int64, p *models.FinanceProfile) error {
	query :=
		`INSERT INTO user_finances (user_id, monthly_income, bills, financial_goals, expenses,
		                            budgets, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		     monthly_income = excluded.monthly_income,
		     bills = excluded.bills,
		     financial_goals = excluded.financial_goals,
		     expenses = excluded.expenses,
		     budgets = excluded.budgets,
		     updated_at = excluded.updated_at`

	now := stamp(p.UpdatedAt)
	_, err := r.db.ExecContext(ctx, r.d.Rebind(query),
		userID, p.MonthlyIncome, models.JSONOr(p.Bills, "[]"), models.JSONOr(p.Goals, "[]"),
		models.JSONOr(p.Expenses, "[]"), models.JSONOr(p.Budgets, "{}"), now, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *SQLRepository) GetFinance(ctx context.Context, userID int64) (*models.FinanceProfile, error) {
	query :=
		`SELECT monthly_income, bills, financial_goals, expenses, budgets, updated_at
		 FROM user_finances
		 WHERE user_id = ?`

	var (
		p                             models.FinanceProfile
		bills, goals, expenses, budget string
	)

	err := r.db.QueryRowContext(ctx, r.d.Rebind(query), userID).Scan(
		&p.MonthlyIncome, &bills, &goals, &expenses, &budget, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	p.Bills = json.RawMessage(bills)
	p.Goals = json.RawMessage(goals)
	p.Expenses = json.RawMessage(expenses)
	p.Budgets = json.RawMessage(budget)

	return &p, nil
}

func (r *SQLRepository) DeleteFinance(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, r.d.Rebind(`DELETE FROM user_finances WHERE user_id = ?`), userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func intPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}
