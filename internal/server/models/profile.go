package models

import (
	"encoding/json"
	"time"
)

// FitnessProfile is a singleton-per-user record. History and goal fields are
// opaque JSON documents owned by the client.
type FitnessProfile struct {
	CurrentWeight  *float64        `json:"currentWeight,omitempty"`
	TargetWeight   *float64        `json:"targetWeight,omitempty"`
	Height         *float64        `json:"height,omitempty"`
	Age            *int64          `json:"age,omitempty"`
	Gender         string          `json:"gender,omitempty"`
	ActivityLevel  string          `json:"activityLevel,omitempty"`
	Goals          json.RawMessage `json:"goals,omitempty"`
	DailyCalories  *int64          `json:"dailyCalories,omitempty"`
	DailyProtein   *int64          `json:"dailyProtein,omitempty"`
	WorkoutHistory json.RawMessage `json:"workoutHistory,omitempty"`
	MealHistory    json.RawMessage `json:"mealHistory,omitempty"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// FinanceProfile is a singleton-per-user record.
type FinanceProfile struct {
	MonthlyIncome float64         `json:"monthlyIncome"`
	Bills         json.RawMessage `json:"bills,omitempty"`
	Goals         json.RawMessage `json:"goals,omitempty"`
	Expenses      json.RawMessage `json:"expenses,omitempty"`
	Budgets       json.RawMessage `json:"budgets,omitempty"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// JSONOr returns raw as a string, or def when raw is empty.
// Both backends store the opaque documents as text.
func JSONOr(raw json.RawMessage, def string) string {
	if len(raw) == 0 {
		return def
	}
	return string(raw)
}
