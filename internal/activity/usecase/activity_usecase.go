package usecase

import (
	"context"
	"fmt"

	"ticktask-backend/internal/activity/domain"
	"ticktask-backend/internal/activity/repository"
	authdomain "ticktask-backend/internal/auth/domain"
	"ticktask-backend/internal/notification"
	"ticktask-backend/internal/visibility"
	"ticktask-backend/pkg/fcm"
	"ticktask-backend/pkg/logger"
	"ticktask-backend/pkg/metrics"

	"go.uber.org/zap"
)

type activityUsecase struct {
	repo      repository.ActivityRepository
	resolver  ScopeResolver
	publisher notification.Publisher
	notifier  notification.Notifier
	logger    *zap.Logger
}

// NewActivityUsecase creates a new ActivityUsecase. A nil publisher disables
// the activity stream.
func NewActivityUsecase(
	repo repository.ActivityRepository,
	resolver ScopeResolver,
	publisher notification.Publisher,
	notifier notification.Notifier,
	logger *zap.Logger,
) ActivityUsecase {
	if publisher == nil {
		publisher = notification.NewNoopPublisher()
	}
	return &activityUsecase{
		repo:      repo,
		resolver:  resolver,
		publisher: publisher,
		notifier:  notifier,
		logger:    logger.Named("activity"),
	}
}

func (u *activityUsecase) Log(ctx context.Context, userID, action, sourceUserID string) error {
	activity := &domain.Activity{UserID: userID, Action: action}
	if sourceUserID != "" {
		activity.SourceUserID = &sourceUserID
	}
	if err := u.repo.Create(ctx, activity); err != nil {
		return fmt.Errorf("log activity: %w", err)
	}
	metrics.ActivitiesLogged.Inc()

	logger.FromContext(ctx, u.logger).Debug("activity logged",
		zap.String("user_id", userID),
		zap.String("action", action))

	u.publisher.Publish(ctx, notification.ActivityEvent{
		ID:           activity.ID,
		UserID:       activity.UserID,
		SourceUserID: activity.SourceUserID,
		Action:       activity.Action,
		CreatedAt:    activity.CreatedAt,
	})

	if sourceUserID != "" && sourceUserID != userID && u.notifier != nil {
		u.notifier.Push(ctx, userID, fcm.Notification{
			Title: "TickTask",
			Body:  action,
			Data: map[string]string{
				"type":        "activity",
				"activity_id": activity.ID,
			},
		})
	}
	return nil
}

func (u *activityUsecase) List(ctx context.Context, actor *authdomain.User, view visibility.ActivityView, filter domain.ListFilter) ([]*domain.Activity, int64, error) {
	scope, err := u.resolver.ActivityScope(ctx, actor, view)
	if err != nil {
		return nil, 0, err
	}
	return u.repo.List(ctx, scope, filter)
}
