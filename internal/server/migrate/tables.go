package migrate

// Table describes one table copied by the Migrator.
type Table struct {
	Name    string
	Columns []string
	// Bools lists columns stored as 0/1 integers on the embedded side.
	Bools map[string]bool
	// Docs maps JSON document columns to the value used when the source is
	// NULL or empty.
	Docs map[string]string
}

// Tables is the copy order. Parents come before children so foreign keys
// hold at every step.
var Tables = []Table{
	{
		Name: "users",
		Columns: []string{"id", "email", "password_hash", "display_name", "is_premium", "premium_expires_at",
			"plan", "total_sessions", "created_at", "last_login_at"},
		Bools: map[string]bool{"is_premium": true},
	},
	{
		Name: "user_tasks",
		Columns: []string{"id", "user_id", "position", "title", "description", "due_date", "priority",
			"category", "completed", "created_at", "updated_at"},
		Bools: map[string]bool{"completed": true},
	},
	{
		Name: "user_fitness",
		Columns: []string{"id", "user_id", "current_weight", "target_weight", "height", "age", "gender",
			"activity_level", "fitness_goals", "daily_calories", "daily_protein", "workout_history",
			"meal_history", "created_at", "updated_at"},
		Docs: map[string]string{"fitness_goals": "[]", "workout_history": "[]", "meal_history": "[]"},
	},
	{
		Name: "user_finances",
		Columns: []string{"id", "user_id", "monthly_income", "bills", "financial_goals", "expenses",
			"budgets", "created_at", "updated_at"},
		Docs: map[string]string{"bills": "[]", "financial_goals": "[]", "expenses": "[]", "budgets": "{}"},
	},
}
