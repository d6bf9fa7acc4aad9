package accounts

import "time"

const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusBlocked   = "blocked"

	RoleUser  = "user"
	RoleAdmin = "admin"

	DefaultRetentionMonths = 3
	MinRetentionMonths     = 1
	MaxRetentionMonths     = 12
)

type Account struct {
	ID              string     `gorm:"type:uuid;primaryKey" json:"id"`
	Email           *string    `gorm:"type:text" json:"email,omitempty"`
	AvatarURL       *string    `gorm:"type:text" json:"avatar_url,omitempty"`
	Status          string     `gorm:"size:16;not null;default:active;index" json:"status"`
	Role            string     `gorm:"size:16;not null;default:user" json:"role"`
	RetentionMonths int        `gorm:"not null;default:3" json:"retention_months"`
	AutoCleanup     bool       `gorm:"not null;default:false" json:"auto_cleanup"`
	LastCleanupAt   *time.Time `json:"last_cleanup_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Account) IsBlocked() bool {
	return a.Status == StatusSuspended || a.Status == StatusBlocked
}

// EffectiveRetentionMonths falls back to the default for rows written before the column existed.
func (a Account) EffectiveRetentionMonths() int {
	if a.RetentionMonths < MinRetentionMonths || a.RetentionMonths > MaxRetentionMonths {
		return DefaultRetentionMonths
	}
	return a.RetentionMonths
}

func (a Account) EmailAddress() string {
	if a.Email == nil {
		return ""
	}
	return *a.Email
}
