package repository

import (
	"context"

	"ticktask-backend/internal/activity/domain"
	"ticktask-backend/internal/visibility"
)

// ActivityRepository defines the interface for activity data access
type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.Activity) error
	// List returns activities whose subject is in scope, newest first
	List(ctx context.Context, scope visibility.Scope, filter domain.ListFilter) ([]*domain.Activity, int64, error)
}
