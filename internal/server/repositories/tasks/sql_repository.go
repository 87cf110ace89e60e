package tasks

import (
	"context"
	"fmt"

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

func (r *SQLRepository) ReplaceAll(ctx context.Context, userID int64, tasks []models.Task) error {
	if err := r.DeleteByUser(ctx, userID); err != nil {
		return err
	}

	query := r.d.Rebind(
		`INSERT INTO user_tasks (user_id, position, title, description, due_date, priority,
		                         category, completed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	for i, t := range tasks {
		_, err := r.db.ExecContext(ctx, query,
			userID, i, t.Title, t.Description, t.DueDate, t.Priority,
			t.Category, t.Completed, t.CreatedAt.UTC(), t.UpdatedAt.UTC())
		if err != nil {
			return fmt.Errorf("db error: insert task %d: %w", i, err)
		}
	}

	return nil
}

func (r *SQLRepository) ListByUser(ctx context.Context, userID int64) ([]models.Task, error) {
	query :=
		`SELECT id, title, description, due_date, priority, category, completed, created_at, updated_at
		 FROM user_tasks
		 WHERE user_id = ?
		 ORDER BY position, id`

	rows, err := r.db.QueryContext(ctx, r.d.Rebind(query), userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Task, 0)
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.DueDate, &t.Priority,
			&t.Category, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *SQLRepository) DeleteByUser(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, r.d.Rebind(`DELETE FROM user_tasks WHERE user_id = ?`), userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
