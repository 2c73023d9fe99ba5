package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Priority represents task priority level
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// TaskStatus is derived from completion and deadline, see DeriveStatus
type TaskStatus string

const (
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusOverdue    TaskStatus = "overdue"
	TaskStatusUpcoming   TaskStatus = "upcoming"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusInProgress, TaskStatusCompleted, TaskStatusOverdue, TaskStatusUpcoming:
		return true
	}
	return false
}

// Task is a unit of work assigned to one user
type Task struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title" gorm:"not null"`
	Description string     `json:"description"`
	CreatorID   string     `json:"creator_id" gorm:"index;not null"`
	AssigneeID  string     `json:"assignee_id" gorm:"index;not null"`
	OwnerID     string     `json:"owner_id" gorm:"index;not null"`
	Deadline    *time.Time `json:"deadline,omitempty" gorm:"index"`
	Priority    Priority   `json:"priority" gorm:"not null;default:Medium"`
	IsCompleted bool       `json:"is_completed" gorm:"not null;default:false"`
	Status      TaskStatus `json:"status" gorm:"index;not null;default:in_progress"`
	Attachment  string     `json:"attachment,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DeriveStatus computes a task status from its completion flag and deadline.
func DeriveStatus(isCompleted bool, deadline *time.Time, now time.Time) TaskStatus {
	switch {
	case isCompleted:
		return TaskStatusCompleted
	case deadline == nil:
		return TaskStatusInProgress
	case deadline.Before(now):
		return TaskStatusOverdue
	default:
		return TaskStatusUpcoming
	}
}

type nowKey struct{}

// WithNow pins the time that BeforeSave derives status against for writes
// made with the returned context.
func WithNow(ctx context.Context, now time.Time) context.Context {
	return context.WithValue(ctx, nowKey{}, now)
}

func nowFrom(tx *gorm.DB) time.Time {
	if tx != nil && tx.Statement != nil && tx.Statement.Context != nil {
		if now, ok := tx.Statement.Context.Value(nowKey{}).(time.Time); ok {
			return now
		}
	}
	return time.Now().UTC()
}

// BeforeSave keeps Status consistent with IsCompleted and Deadline on every
// create and update that goes through GORM.
func (t *Task) BeforeSave(tx *gorm.DB) error {
	t.Status = DeriveStatus(t.IsCompleted, t.Deadline, nowFrom(tx))
	return nil
}

// Comment is an append-only note on a task
type Comment struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	TaskID    string    `json:"task_id" gorm:"index;not null"`
	AuthorID  string    `json:"author_id" gorm:"index;not null"`
	Content   string    `json:"content" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats aggregates the tasks assigned to one user
type Stats struct {
	Total         int              `json:"total"`
	Completed     int              `json:"completed"`
	InProgress    int              `json:"in_progress"`
	Overdue       int              `json:"overdue"`
	Upcoming      int              `json:"upcoming"`
	PriorityStats map[Priority]int `json:"priority_stats"`
}
