package models

import "time"

// Theme is a per-user presentation preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// User represents the user model in the database
type User struct {
	Base
	Username            string     `gorm:"uniqueIndex;not null" json:"username"`
	Email               string     `gorm:"uniqueIndex;not null" json:"email"`
	Password            string     `gorm:"not null" json:"-"`
	DisplayName         string     `json:"display_name"`
	AvatarRef           string     `json:"avatar_ref,omitempty"`
	Currency            string     `gorm:"size:3;default:USD" json:"currency"`
	Theme               Theme      `gorm:"size:8;default:light" json:"theme"`
	IsActive            bool       `gorm:"default:true" json:"is_active"`
	RefreshTokenHash    string     `gorm:"size:64" json:"-"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
}
