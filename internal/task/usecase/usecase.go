package usecase

import (
	"context"
	"io"
	"time"

	authdomain "ticktask-backend/internal/auth/domain"
	identitydomain "ticktask-backend/internal/identity/domain"
	"ticktask-backend/internal/task/domain"
	"ticktask-backend/internal/visibility"
)

// TaskUsecase defines the interface for task business logic
type TaskUsecase interface {
	// Create creates one task per assignee. Members always get a single
	// self-assigned task.
	Create(ctx context.Context, actor *authdomain.User, input CreateTaskInput) (*CreateResult, error)

	// Get retrieves a task the actor can view
	Get(ctx context.Context, actor *authdomain.User, taskID string) (*TaskView, error)

	// List returns the tasks in the actor's scope
	List(ctx context.Context, actor *authdomain.User, filter ListFilter) ([]*TaskView, int64, error)

	// Update applies a patch and records what changed
	Update(ctx context.Context, actor *authdomain.User, taskID string, input UpdateTaskInput) (*TaskView, error)

	Delete(ctx context.Context, actor *authdomain.User, taskID string) error

	// Stats marks the actor's late tasks overdue and counts them
	Stats(ctx context.Context, actor *authdomain.User) (*domain.Stats, error)

	// Summary returns per-user counts for the users the actor can see
	Summary(ctx context.Context, actor *authdomain.User, userID string) ([]*UserSummary, error)

	UploadAttachment(ctx context.Context, actor *authdomain.User, taskID, filename, contentType string, body io.Reader) (*TaskView, error)
	RemoveAttachment(ctx context.Context, actor *authdomain.User, taskID string) (*TaskView, error)

	AddComment(ctx context.Context, actor *authdomain.User, taskID, content string) (*domain.Comment, error)
	ListComments(ctx context.Context, actor *authdomain.User, taskID string) ([]*domain.Comment, error)
}

// CreateTaskInput is the payload for Create. Deadline is RFC 3339.
type CreateTaskInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Deadline    *string  `json:"deadline"`
	Priority    string   `json:"priority"`
	AssigneeIDs []string `json:"assignee_ids"`
}

// UpdateTaskInput holds the fields to change. An empty Deadline clears it.
type UpdateTaskInput struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Deadline    *string `json:"deadline,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	IsCompleted *bool   `json:"is_completed,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// ListFilter is the parsed task list query
type ListFilter struct {
	Status   string
	Priority string
	Ordering string
	Page     int
	PageSize int
}

// AssignmentFailure reports an assignee whose task was not created
type AssignmentFailure struct {
	AssigneeID string `json:"assignee_id"`
	Error      string `json:"error"`
}

// CreateResult lists the tasks created by one Create call
type CreateResult struct {
	Tasks    []*TaskView         `json:"tasks"`
	Failures []AssignmentFailure `json:"failures,omitempty"`
}

// TaskView is a task as returned to clients
type TaskView struct {
	*domain.Task
	CreatorUsername  string            `json:"created_by"`
	AssigneeUsername string            `json:"assigned_to"`
	RecentComments   []*domain.Comment `json:"recent_comments"`
}

// UserSummary holds per-user task counts. PriorityStats counts open tasks only.
type UserSummary struct {
	ID            string                  `json:"id"`
	Username      string                  `json:"username"`
	Total         int                     `json:"total"`
	Completed     int                     `json:"completed"`
	Overdue       int                     `json:"overdue"`
	Upcoming      int                     `json:"upcoming"`
	InProgress    int                     `json:"in_progress"`
	PriorityStats map[domain.Priority]int `json:"priority_stats"`
}

// AccessResolver answers visibility questions for task operations
type AccessResolver interface {
	Role(ctx context.Context, actor *authdomain.User) (identitydomain.Role, error)
	TaskScope(ctx context.Context, actor *authdomain.User) (visibility.Scope, error)
	CanView(ctx context.Context, actor *authdomain.User, task *domain.Task) (bool, error)
	CanModify(ctx context.Context, actor *authdomain.User, task *domain.Task) (bool, error)
}

// ActivityLogger appends entries to the activity feed
type ActivityLogger interface {
	Log(ctx context.Context, userID, action, sourceUserID string) error
}

// UserDirectory looks users up
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*authdomain.User, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*authdomain.User, error)
	List(ctx context.Context, scope visibility.Scope) ([]*authdomain.User, error)
}

// Clock returns the current time
type Clock func() time.Time
