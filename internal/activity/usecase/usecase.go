package usecase

import (
	"context"

	"ticktask-backend/internal/activity/domain"
	authdomain "ticktask-backend/internal/auth/domain"
	"ticktask-backend/internal/visibility"
)

// ActivityUsecase writes and reads the activity feed
type ActivityUsecase interface {
	// Log appends one activity for userID. sourceUserID may be empty.
	Log(ctx context.Context, userID, action, sourceUserID string) error
	List(ctx context.Context, actor *authdomain.User, view visibility.ActivityView, filter domain.ListFilter) ([]*domain.Activity, int64, error)
}

// ScopeResolver resolves the activity scope of an actor
type ScopeResolver interface {
	ActivityScope(ctx context.Context, actor *authdomain.User, view visibility.ActivityView) (visibility.Scope, error)
}
