// Package models defines the records the client caches locally and exchanges
// with the server. Fitness and finance profiles stay opaque JSON documents on
// this side.
package models

import "time"

// User is the cached identity of the logged-in account.
type User struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	IsPremium     bool   `json:"isPremium"`
	Plan          string `json:"plan,omitempty"`
	TotalSessions int64  `json:"totalSessions"`
}

// Task is one element of the ordered task collection. The collection is
// always sent as a whole.
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

type PremiumStatus struct {
	IsPremium bool       `json:"isPremium"`
	Plan      string     `json:"plan,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	IsExpired bool       `json:"isExpired"`
}

type BackupResult struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
