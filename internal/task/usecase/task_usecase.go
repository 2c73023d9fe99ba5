package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	authdomain "ticktask-backend/internal/auth/domain"
	identitydomain "ticktask-backend/internal/identity/domain"
	"ticktask-backend/internal/notification"
	"ticktask-backend/internal/task/domain"
	"ticktask-backend/internal/task/repository"
	"ticktask-backend/pkg/apperror"
	"ticktask-backend/pkg/logger"
	"ticktask-backend/pkg/metrics"
	"ticktask-backend/pkg/storage"

	"go.uber.org/zap"
)

const recentCommentCount = 2

// Deps groups the collaborators of the task usecase
type Deps struct {
	Tasks         repository.TaskRepository
	Users         UserDirectory
	Access        AccessResolver
	Activities    ActivityLogger
	Notifier      notification.Notifier
	Storage       storage.Store
	StoragePrefix string
	Clock         Clock
	Logger        *zap.Logger
}

type taskUsecase struct {
	taskRepo      repository.TaskRepository
	users         UserDirectory
	access        AccessResolver
	activities    ActivityLogger
	notifier      notification.Notifier
	store         storage.Store
	storagePrefix string
	now           Clock
	logger        *zap.Logger
}

// NewTaskUsecase creates a new TaskUsecase
func NewTaskUsecase(deps Deps) TaskUsecase {
	if deps.Clock == nil {
		deps.Clock = func() time.Time { return time.Now().UTC() }
	}
	return &taskUsecase{
		taskRepo:      deps.Tasks,
		users:         deps.Users,
		access:        deps.Access,
		activities:    deps.Activities,
		notifier:      deps.Notifier,
		store:         deps.Storage,
		storagePrefix: deps.StoragePrefix,
		now:           deps.Clock,
		logger:        deps.Logger.Named("task"),
	}
}

func (u *taskUsecase) Create(ctx context.Context, actor *authdomain.User, input CreateTaskInput) (*CreateResult, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperror.Validation("title is required")
	}
	priority, err := parsePriority(input.Priority)
	if err != nil {
		return nil, err
	}
	deadline, err := parseDeadline(input.Deadline)
	if err != nil {
		return nil, err
	}

	role, err := u.access.Role(ctx, actor)
	if err != nil {
		return nil, err
	}
	assignees := dedupe(input.AssigneeIDs)
	if len(assignees) > 0 && role != identitydomain.RoleAdmin && role != identitydomain.RoleLeader {
		assignees = []string{actor.ID}
	}

	newTask := func(assigneeID string) *domain.Task {
		return &domain.Task{
			Title:       title,
			Description: input.Description,
			CreatorID:   actor.ID,
			AssigneeID:  assigneeID,
			OwnerID:     actor.ID,
			Deadline:    deadline,
			Priority:    priority,
		}
	}

	result := &CreateResult{}
	if len(assignees) == 0 {
		task := newTask(actor.ID)
		if err := u.taskRepo.Create(domain.WithNow(ctx, u.now()), task); err != nil {
			return nil, err
		}
		metrics.TasksCreated.Inc()
		if err := u.activities.Log(ctx, actor.ID, fmt.Sprintf("Created task: %s", task.Title), ""); err != nil {
			return nil, err
		}
		result.Tasks = append(result.Tasks, u.view(task, actor, actor, nil))
		return result, nil
	}

	users, err := u.users.FindByIDs(ctx, assignees)
	if err != nil {
		return nil, err
	}

	var firstErr error
	for _, assigneeID := range assignees {
		task, err := u.createFor(ctx, actor, users[assigneeID], assigneeID, newTask)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			logger.FromContext(ctx, u.logger).Warn("task not created for assignee",
				zap.String("assignee_id", assigneeID), zap.Error(err))
			result.Failures = append(result.Failures, AssignmentFailure{
				AssigneeID: assigneeID,
				Error:      apperror.PublicMessage(err),
			})
			continue
		}
		result.Tasks = append(result.Tasks, u.view(task, actor, users[assigneeID], nil))
	}

	if len(result.Tasks) == 0 {
		return nil, firstErr
	}
	return result, nil
}

// createFor creates and announces the task of one assignee.
func (u *taskUsecase) createFor(ctx context.Context, actor, assignee *authdomain.User, assigneeID string, newTask func(string) *domain.Task) (*domain.Task, error) {
	if assignee == nil {
		return nil, apperror.NotFound("user %s not found", assigneeID)
	}

	task := newTask(assignee.ID)
	if err := u.taskRepo.Create(domain.WithNow(ctx, u.now()), task); err != nil {
		return nil, err
	}
	metrics.TasksCreated.Inc()

	if assignee.ID == actor.ID {
		if err := u.activities.Log(ctx, actor.ID, fmt.Sprintf("Created task: %s", task.Title), ""); err != nil {
			return nil, err
		}
		if actor.Email != "" {
			u.notifier.Email(ctx, notification.SelfAssignmentEmail(actor.Email, actor.Username, task.Title))
		}
		return task, nil
	}

	if err := u.activities.Log(ctx, actor.ID, fmt.Sprintf("Assigned task '%s' to %s", task.Title, assignee.Username), ""); err != nil {
		return nil, err
	}
	if err := u.activities.Log(ctx, assignee.ID, fmt.Sprintf("You were assigned a new task: %s", task.Title), actor.ID); err != nil {
		return nil, err
	}
	if assignee.Email != "" {
		u.notifier.Email(ctx, notification.AssignmentEmail(assignee.Email, assignee.Username, actor.Username, task.Title))
	}
	return task, nil
}

func (u *taskUsecase) Get(ctx context.Context, actor *authdomain.User, taskID string) (*TaskView, error) {
	task, err := u.viewableTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	views, err := u.views(ctx, []*domain.Task{task})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (u *taskUsecase) List(ctx context.Context, actor *authdomain.User, filter ListFilter) ([]*TaskView, int64, error) {
	repoFilter := repository.ListFilter{Ordering: filter.Ordering}
	if filter.Status != "" {
		status := domain.TaskStatus(filter.Status)
		if !status.Valid() {
			return nil, 0, apperror.Validation("invalid status %q", filter.Status)
		}
		repoFilter.Status = &status
	}
	if filter.Priority != "" {
		priority := domain.Priority(filter.Priority)
		if !priority.Valid() {
			return nil, 0, apperror.Validation("invalid priority %q", filter.Priority)
		}
		repoFilter.Priority = &priority
	}
	if filter.Ordering != "" && !repository.ValidOrdering(filter.Ordering) {
		return nil, 0, apperror.Validation("invalid ordering %q", filter.Ordering)
	}
	if filter.PageSize > 0 {
		repoFilter.Limit = filter.PageSize
		repoFilter.Offset = max(filter.Page-1, 0) * filter.PageSize
	}

	scope, err := u.access.TaskScope(ctx, actor)
	if err != nil {
		return nil, 0, err
	}
	tasks, total, err := u.taskRepo.List(ctx, scope, repoFilter)
	if err != nil {
		return nil, 0, err
	}
	views, err := u.views(ctx, tasks)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (u *taskUsecase) Update(ctx context.Context, actor *authdomain.User, taskID string, input UpdateTaskInput) (*TaskView, error) {
	task, err := u.modifiableTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	before := *task

	now := u.now()
	if err := applyPatch(task, input, now); err != nil {
		return nil, err
	}
	if err := u.taskRepo.Update(domain.WithNow(ctx, now), task); err != nil {
		return nil, err
	}

	changes := diff(&before, task)
	if len(changes) > 0 {
		summary := strings.Join(changes, ", ")
		if err := u.activities.Log(ctx, actor.ID, fmt.Sprintf("Task '%s' – %s", task.Title, summary), ""); err != nil {
			return nil, err
		}
		if task.AssigneeID != actor.ID {
			if err := u.activities.Log(ctx, task.AssigneeID, fmt.Sprintf("Task '%s' was modified – %s", task.Title, summary), actor.ID); err != nil {
				return nil, err
			}
		}
	}

	if before.Status != task.Status {
		u.notifyStatusChange(ctx, actor, task, before.Status)
	}

	views, err := u.views(ctx, []*domain.Task{task})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// notifyStatusChange e-mails the creator and assignee, except the actor.
func (u *taskUsecase) notifyStatusChange(ctx context.Context, actor *authdomain.User, task *domain.Task, from domain.TaskStatus) {
	recipients := dedupe([]string{task.CreatorID, task.AssigneeID})
	users, err := u.users.FindByIDs(ctx, recipients)
	if err != nil {
		logger.FromContext(ctx, u.logger).Error("failed to load status change recipients", zap.Error(err))
		return
	}
	for _, id := range recipients {
		user := users[id]
		if id == actor.ID || user == nil || user.Email == "" {
			continue
		}
		u.notifier.Email(ctx, notification.StatusChangeEmail(
			user.Email, user.Username, actor.Username, task.Title, string(from), string(task.Status)))
	}
}

func (u *taskUsecase) Delete(ctx context.Context, actor *authdomain.User, taskID string) error {
	task, err := u.modifiableTask(ctx, actor, taskID)
	if err != nil {
		return err
	}
	if err := u.activities.Log(ctx, actor.ID, fmt.Sprintf("Deleted task: '%s'", task.Title), ""); err != nil {
		return err
	}
	if err := u.taskRepo.Delete(ctx, task.ID); err != nil {
		return err
	}
	if task.Attachment != "" && u.store != nil {
		if err := u.store.Delete(ctx, task.Attachment); err != nil {
			logger.FromContext(ctx, u.logger).Warn("failed to delete attachment of removed task",
				zap.String("task_id", task.ID), zap.Error(err))
		}
	}
	return nil
}

func (u *taskUsecase) findTask(ctx context.Context, taskID string) (*domain.Task, error) {
	task, err := u.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperror.NotFound("task %s not found", taskID)
	}
	return task, nil
}

func (u *taskUsecase) modifiableTask(ctx context.Context, actor *authdomain.User, taskID string) (*domain.Task, error) {
	task, err := u.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	ok, err := u.access.CanModify(ctx, actor, task)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.Forbidden("you cannot modify this task")
	}
	return task, nil
}

// views attaches usernames and the latest comments.
func (u *taskUsecase) views(ctx context.Context, tasks []*domain.Task) ([]*TaskView, error) {
	ids := make([]string, 0, len(tasks))
	var userIDs []string
	for _, t := range tasks {
		ids = append(ids, t.ID)
		userIDs = append(userIDs, t.CreatorID, t.AssigneeID)
	}
	comments, err := u.taskRepo.RecentComments(ctx, ids, recentCommentCount)
	if err != nil {
		return nil, err
	}
	users, err := u.users.FindByIDs(ctx, dedupe(userIDs))
	if err != nil {
		return nil, err
	}

	views := make([]*TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, u.view(t, users[t.CreatorID], users[t.AssigneeID], comments[t.ID]))
	}
	return views, nil
}

func (u *taskUsecase) view(task *domain.Task, creator, assignee *authdomain.User, comments []*domain.Comment) *TaskView {
	v := &TaskView{Task: task, RecentComments: comments}
	if v.RecentComments == nil {
		v.RecentComments = []*domain.Comment{}
	}
	if creator != nil {
		v.CreatorUsername = creator.Username
	}
	if assignee != nil {
		v.AssigneeUsername = assignee.Username
	}
	return v
}

func applyPatch(task *domain.Task, input UpdateTaskInput, now time.Time) error {
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return apperror.Validation("title cannot be empty")
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Deadline != nil {
		deadline, err := parseDeadline(input.Deadline)
		if err != nil {
			return err
		}
		task.Deadline = deadline
	}
	if input.Priority != nil {
		priority, err := parsePriority(*input.Priority)
		if err != nil {
			return err
		}
		task.Priority = priority
	}
	if input.IsCompleted != nil {
		task.IsCompleted = *input.IsCompleted
	}
	if input.Status != nil {
		status := domain.TaskStatus(*input.Status)
		if !status.Valid() {
			return apperror.Validation("invalid status %q", *input.Status)
		}
		task.IsCompleted = status == domain.TaskStatusCompleted
	}
	task.Status = domain.DeriveStatus(task.IsCompleted, task.Deadline, now)
	return nil
}

// diff lists the human-readable changes between two versions of a task.
func diff(before, after *domain.Task) []string {
	var changes []string
	if before.Title != after.Title {
		changes = append(changes, "changed title")
	}
	if before.Description != after.Description {
		changes = append(changes, "changed description")
	}
	if !sameDeadline(before.Deadline, after.Deadline) {
		changes = append(changes, "changed deadline")
	}
	if before.Priority != after.Priority {
		changes = append(changes, fmt.Sprintf("changed priority from %s to %s", before.Priority, after.Priority))
	}
	if before.Status != after.Status {
		changes = append(changes, fmt.Sprintf("changed status from %s to %s", before.Status, after.Status))
	}
	return changes
}

func sameDeadline(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func parsePriority(p string) (domain.Priority, error) {
	if p == "" {
		return domain.PriorityMedium, nil
	}
	priority := domain.Priority(p)
	if !priority.Valid() {
		return "", apperror.Validation("invalid priority %q", p)
	}
	return priority, nil
}

func parseDeadline(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(*raw))
	if err != nil {
		return nil, apperror.Validation("deadline must be an RFC 3339 timestamp")
	}
	t = t.UTC()
	return &t, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
