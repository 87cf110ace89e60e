package models

import "time"

const (
	DefaultTaskPriority = "medium"
	DefaultTaskCategory = "personal"
)

// Task is one element of a user's ordered task collection. The collection is
// always saved as a whole (replace-all), so IDs are reassigned on every save.
type Task struct {
	ID          int64     `json:"id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DueDate     string    `json:"dueDate,omitempty"`
	Priority    string    `json:"priority,omitempty"`
	Category    string    `json:"category,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Normalize fills defaults the way both backends store them.
func (t *Task) Normalize(now time.Time) {
	if t.Priority == "" {
		t.Priority = DefaultTaskPriority
	}
	if t.Category == "" {
		t.Category = DefaultTaskCategory
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}
