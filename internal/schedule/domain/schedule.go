package domain

import "time"

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Note is a private note visible only to its author
type Note struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Title     string    `json:"title" gorm:"size:100;not null"`
	Content   string    `json:"content" gorm:"not null"`
	AuthorID  string    `json:"author" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// Schedule is a personal calendar entry. Date holds DateLayout and Time,
// when set, TimeLayout.
type Schedule struct {
	ID     string  `json:"id" gorm:"primaryKey"`
	UserID string  `json:"user" gorm:"index;not null"`
	Name   string  `json:"name" gorm:"size:255;not null"`
	Date   string  `json:"date" gorm:"column:entry_date;size:10;index;not null"`
	Time   *string `json:"time" gorm:"column:entry_time;size:8"`
	Notes  string  `json:"notes"`
}

// DashboardStats counts calendar entries, plus users for staff
type DashboardStats struct {
	Schedules int64  `json:"schedules"`
	Users     *int64 `json:"users"`
}
