package domain

import (
	"time"

	authdomain "ticktask-backend/internal/auth/domain"
)

// Activity is one entry in a user's feed. UserID is the user the entry
// belongs to; SourceUserID, when set, is the user who caused it.
type Activity struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	UserID       string    `json:"user_id" gorm:"index;not null"`
	SourceUserID *string   `json:"source_user_id" gorm:"index"`
	Action       string    `json:"action" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`

	User       *authdomain.User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	SourceUser *authdomain.User `json:"-" gorm:"foreignKey:SourceUserID;constraint:OnDelete:SET NULL"`

	Username       string  `json:"username" gorm:"-"`
	SourceUsername *string `json:"source_user" gorm:"-"`
}

// ResolveNames fills the username fields from the loaded relations
func (a *Activity) ResolveNames() {
	if a.User != nil {
		a.Username = a.User.Username
	}
	if a.SourceUser != nil {
		name := a.SourceUser.Username
		a.SourceUsername = &name
	}
}

// ListFilter narrows an activity listing
type ListFilter struct {
	ActionContains string
	Username       string
	DateFrom       *time.Time
	DateTo         *time.Time
	Limit          int
	Offset         int
}
