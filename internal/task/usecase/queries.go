package usecase

import (
	"context"
	"io"
	"strings"

	authdomain "ticktask-backend/internal/auth/domain"
	"ticktask-backend/internal/notification"
	"ticktask-backend/internal/task/domain"
	"ticktask-backend/internal/visibility"
	"ticktask-backend/pkg/apperror"
	"ticktask-backend/pkg/logger"
	"ticktask-backend/pkg/storage"

	"go.uber.org/zap"
)

func (u *taskUsecase) Stats(ctx context.Context, actor *authdomain.User) (*domain.Stats, error) {
	if n, err := u.taskRepo.MarkOverdue(ctx, actor.ID, u.now()); err != nil {
		return nil, err
	} else if n > 0 {
		logger.FromContext(ctx, u.logger).Debug("tasks marked overdue", zap.String("user_id", actor.ID), zap.Int64("count", n))
	}

	rows, err := u.taskRepo.CountByStatus(ctx, []string{actor.ID})
	if err != nil {
		return nil, err
	}

	stats := &domain.Stats{PriorityStats: map[domain.Priority]int{}}
	for _, r := range rows {
		stats.Total += r.Count
		stats.PriorityStats[r.Priority] += r.Count
		switch r.Status {
		case domain.TaskStatusCompleted:
			stats.Completed += r.Count
		case domain.TaskStatusInProgress:
			stats.InProgress += r.Count
		case domain.TaskStatusOverdue:
			stats.Overdue += r.Count
		case domain.TaskStatusUpcoming:
			stats.Upcoming += r.Count
		}
	}
	return stats, nil
}

func (u *taskUsecase) Summary(ctx context.Context, actor *authdomain.User, userID string) ([]*UserSummary, error) {
	scope, err := u.access.TaskScope(ctx, actor)
	if err != nil {
		return nil, err
	}
	if userID != "" {
		if !scope.Includes(userID) {
			return nil, apperror.Forbidden("you cannot view this user's tasks")
		}
		scope = visibility.Only(userID)
	}

	users, err := u.users.List(ctx, scope)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(users))
	summaries := make(map[string]*UserSummary, len(users))
	result := make([]*UserSummary, 0, len(users))
	for _, user := range users {
		s := &UserSummary{
			ID:       user.ID,
			Username: user.Username,
			PriorityStats: map[domain.Priority]int{
				domain.PriorityHigh:   0,
				domain.PriorityMedium: 0,
				domain.PriorityLow:    0,
			},
		}
		ids = append(ids, user.ID)
		summaries[user.ID] = s
		result = append(result, s)
	}

	rows, err := u.taskRepo.CountByStatus(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		s := summaries[r.AssigneeID]
		if s == nil {
			continue
		}
		s.Total += r.Count
		switch r.Status {
		case domain.TaskStatusCompleted:
			s.Completed += r.Count
		case domain.TaskStatusInProgress:
			s.InProgress += r.Count
		case domain.TaskStatusOverdue:
			s.Overdue += r.Count
		case domain.TaskStatusUpcoming:
			s.Upcoming += r.Count
		}
		if r.Status != domain.TaskStatusCompleted {
			s.PriorityStats[r.Priority] += r.Count
		}
	}
	return result, nil
}

func (u *taskUsecase) UploadAttachment(ctx context.Context, actor *authdomain.User, taskID, filename, contentType string, body io.Reader) (*TaskView, error) {
	if u.store == nil {
		return nil, apperror.New(apperror.CodeInternal, "attachment storage is not configured")
	}
	task, err := u.modifiableTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	key := storage.NewKey(u.storagePrefix, task.ID, filename)
	if err := u.store.Put(ctx, key, body, contentType); err != nil {
		return nil, err
	}

	previous := task.Attachment
	task.Attachment = key
	if err := u.taskRepo.Update(domain.WithNow(ctx, u.now()), task); err != nil {
		return nil, err
	}
	if previous != "" {
		if err := u.store.Delete(ctx, previous); err != nil {
			logger.FromContext(ctx, u.logger).Warn("failed to delete replaced attachment",
				zap.String("task_id", task.ID), zap.String("key", previous), zap.Error(err))
		}
	}

	views, err := u.views(ctx, []*domain.Task{task})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (u *taskUsecase) RemoveAttachment(ctx context.Context, actor *authdomain.User, taskID string) (*TaskView, error) {
	task, err := u.modifiableTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	if task.Attachment != "" {
		u.deleteStoredFile(ctx, task.Attachment)
		task.Attachment = ""
		if err := u.taskRepo.Update(domain.WithNow(ctx, u.now()), task); err != nil {
			return nil, err
		}
	}

	views, err := u.views(ctx, []*domain.Task{task})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// deleteStoredFile removes a stored object. A missing object is success and
// backend errors are only logged.
func (u *taskUsecase) deleteStoredFile(ctx context.Context, key string) {
	if u.store == nil {
		return
	}
	log := logger.FromContext(ctx, u.logger).With(zap.String("key", key))

	exists, err := u.store.Exists(ctx, key)
	if err != nil {
		log.Warn("attachment existence check failed", zap.Error(err))
		return
	}
	if !exists {
		log.Debug("attachment already absent")
		return
	}
	if err := u.store.Delete(ctx, key); err != nil {
		log.Error("attachment delete failed", zap.Error(err))
	}
}

func (u *taskUsecase) AddComment(ctx context.Context, actor *authdomain.User, taskID, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.Validation("content is required")
	}
	task, err := u.viewableTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{TaskID: task.ID, AuthorID: actor.ID, Content: content}
	if err := u.taskRepo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	if err := u.activities.Log(ctx, actor.ID, "Added a comment to task: '"+task.Title+"'", ""); err != nil {
		return nil, err
	}

	recipientID := task.CreatorID
	if actor.ID == task.CreatorID {
		recipientID = task.AssigneeID
	}
	if recipientID != actor.ID {
		recipient, err := u.users.FindByID(ctx, recipientID)
		if err != nil {
			logger.FromContext(ctx, u.logger).Error("failed to load comment recipient", zap.Error(err))
		} else if recipient != nil && recipient.Email != "" {
			u.notifier.Email(ctx, notification.CommentEmail(recipient.Email, recipient.Username, actor.Username, task.Title, content))
		}
	}
	return comment, nil
}

func (u *taskUsecase) ListComments(ctx context.Context, actor *authdomain.User, taskID string) ([]*domain.Comment, error) {
	task, err := u.viewableTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	return u.taskRepo.ListComments(ctx, task.ID)
}

func (u *taskUsecase) viewableTask(ctx context.Context, actor *authdomain.User, taskID string) (*domain.Task, error) {
	task, err := u.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	ok, err := u.access.CanView(ctx, actor, task)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.Forbidden("you cannot view this task")
	}
	return task, nil
}
