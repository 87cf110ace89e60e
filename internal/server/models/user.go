// Package models defines the server-side records persisted by both store
// backends and exchanged over the REST surface.
package models

import "time"

// User owns every Domain Record. Email is unique across the store.
type User struct {
	ID               int64      `json:"id"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	DisplayName      string     `json:"displayName"`
	IsPremium        bool       `json:"isPremium"`
	PremiumExpiresAt *time.Time `json:"premiumExpiresAt,omitempty"`
	Plan             string     `json:"plan,omitempty"`
	TotalSessions    int64      `json:"totalSessions"`
	CreatedAt        time.Time  `json:"createdAt"`
	LastLoginAt      *time.Time `json:"lastLoginAt,omitempty"`
}

// PremiumUpdate carries the fields changed by UpdatePremiumStatus.
type PremiumUpdate struct {
	IsPremium bool       `json:"isPremium"`
	Plan      string     `json:"plan"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// PremiumStatus is the effective premium state at a point in time.
type PremiumStatus struct {
	IsPremium bool       `json:"isPremium"`
	Plan      string     `json:"plan,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	IsExpired bool       `json:"isExpired"`
}

// EffectivePremium derives a PremiumStatus from the stored flag and expiry.
// A premium flag with an expiry in the past does not count.
func EffectivePremium(u *User, now time.Time) *PremiumStatus {
	expired := u.PremiumExpiresAt != nil && u.PremiumExpiresAt.Before(now)
	return &PremiumStatus{
		IsPremium: u.IsPremium && !expired,
		Plan:      u.Plan,
		ExpiresAt: u.PremiumExpiresAt,
		IsExpired: expired,
	}
}
