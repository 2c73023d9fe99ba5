package repository

import (
	"context"
	"time"

	"ticktask-backend/internal/task/domain"
	"ticktask-backend/internal/visibility"
)

// ListFilter narrows and orders a task listing
type ListFilter struct {
	Status   *domain.TaskStatus
	Priority *domain.Priority
	Ordering string
	Limit    int
	Offset   int
}

// StatusCount is one row of the per-assignee status/priority histogram
type StatusCount struct {
	AssigneeID string
	Status     domain.TaskStatus
	Priority   domain.Priority
	Count      int
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error

	// FindByID returns nil, nil when the task does not exist
	FindByID(ctx context.Context, id string) (*domain.Task, error)

	// List returns tasks whose assignee is in scope, plus the total before paging
	List(ctx context.Context, scope visibility.Scope, filter ListFilter) ([]*domain.Task, int64, error)

	Update(ctx context.Context, task *domain.Task) error

	// Delete removes the task and its comments
	Delete(ctx context.Context, id string) error

	// MarkOverdue flips open tasks of the assignee whose deadline passed
	MarkOverdue(ctx context.Context, assigneeID string, now time.Time) (int64, error)

	// CountByStatus groups tasks of the given assignees by status and priority
	CountByStatus(ctx context.Context, assigneeIDs []string) ([]StatusCount, error)

	// FindDueBetween finds open tasks with from <= deadline < to
	FindDueBetween(ctx context.Context, from, to time.Time) ([]*domain.Task, error)

	CreateComment(ctx context.Context, comment *domain.Comment) error
	ListComments(ctx context.Context, taskID string) ([]*domain.Comment, error)
	// RecentComments returns up to n newest comments per task
	RecentComments(ctx context.Context, taskIDs []string, n int) (map[string][]*domain.Comment, error)
}
