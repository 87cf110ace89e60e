package models

import "time"

// UserExport is the full snapshot returned by ExportUserData.
type UserExport struct {
	Profile    ExportProfile   `json:"profile"`
	Tasks      []Task          `json:"tasks"`
	Fitness    *FitnessProfile `json:"fitness"`
	Finances   *FinanceProfile `json:"finances"`
	ExportedAt time.Time       `json:"exportedAt"`
}

// ExportProfile is the user-facing part of User included in an export.
type ExportProfile struct {
	Email         string         `json:"email"`
	DisplayName   string         `json:"displayName"`
	CreatedAt     time.Time      `json:"createdAt"`
	TotalSessions int64          `json:"totalSessions"`
	Premium       *PremiumStatus `json:"premium"`
}

// NewUserExport assembles an export from its parts.
func NewUserExport(u *User, tasks []Task, fitness *FitnessProfile, finances *FinanceProfile, now time.Time) *UserExport {
	if tasks == nil {
		tasks = []Task{}
	}
	return &UserExport{
		Profile: ExportProfile{
			Email:         u.Email,
			DisplayName:   u.DisplayName,
			CreatedAt:     u.CreatedAt,
			TotalSessions: u.TotalSessions,
			Premium:       EffectivePremium(u, now),
		},
		Tasks:      tasks,
		Fitness:    fitness,
		Finances:   finances,
		ExportedAt: now,
	}
}
