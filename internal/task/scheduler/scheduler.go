package scheduler

import (
	"context"
	"fmt"
	"time"

	authdomain "ticktask-backend/internal/auth/domain"
	"ticktask-backend/internal/notification"
	"ticktask-backend/internal/task/repository"
	"ticktask-backend/pkg/fcm"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// UserLookup resolves task assignees
type UserLookup interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]*authdomain.User, error)
}

// TaskReminderScheduler reminds assignees of tasks due in DaysAhead days
type TaskReminderScheduler struct {
	taskRepo  repository.TaskRepository
	users     UserLookup
	notifier  notification.Notifier
	daysAhead int
	logger    *zap.Logger
	cron      *cron.Cron
	now       func() time.Time
}

// NewTaskReminderScheduler creates a new scheduler
func NewTaskReminderScheduler(
	taskRepo repository.TaskRepository,
	users UserLookup,
	notifier notification.Notifier,
	daysAhead int,
	logger *zap.Logger,
) *TaskReminderScheduler {
	if daysAhead <= 0 {
		daysAhead = 2
	}
	return &TaskReminderScheduler{
		taskRepo:  taskRepo,
		users:     users,
		notifier:  notifier,
		daysAhead: daysAhead,
		logger:    logger.Named("reminder"),
		cron:      cron.New(cron.WithLocation(time.UTC)),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start runs the sweep on the given cron schedule, e.g. "0 8 * * *".
func (s *TaskReminderScheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.Run(ctx); err != nil {
			s.logger.Error("reminder sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	s.cron.Start()
	s.logger.Info("reminder scheduler started", zap.String("schedule", spec), zap.Int("days_ahead", s.daysAhead))
	return nil
}

// Stop waits for a running sweep to finish or ctx to expire.
func (s *TaskReminderScheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("reminder scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("reminder scheduler stop timed out")
	}
}

// Run sends one reminder per open task whose deadline falls on the UTC day
// DaysAhead days from now and returns how many were sent.
func (s *TaskReminderScheduler) Run(ctx context.Context) (int, error) {
	today := s.now().Truncate(24 * time.Hour)
	from := today.AddDate(0, 0, s.daysAhead)
	to := from.AddDate(0, 0, 1)

	tasks, err := s.taskRepo.FindDueBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("find due tasks: %w", err)
	}
	if len(tasks) == 0 {
		s.logger.Debug("no tasks due", zap.Time("day", from))
		return 0, nil
	}

	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.AssigneeID)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("load assignees: %w", err)
	}

	sent := 0
	for _, task := range tasks {
		assignee := users[task.AssigneeID]
		if assignee == nil || assignee.Email == "" {
			s.logger.Debug("assignee has no e-mail, skipping", zap.String("task_id", task.ID))
			continue
		}
		s.notifier.Email(ctx, notification.ReminderEmail(assignee.Email, assignee.Username, task.Title, s.daysAhead, *task.Deadline))
		s.notifier.Push(ctx, assignee.ID, fcm.Notification{
			Title: "Reminder: " + task.Title,
			Body:  fmt.Sprintf("Due in %d days", s.daysAhead),
			Data: map[string]string{
				"type":     "task_reminder",
				"task_id":  task.ID,
				"priority": string(task.Priority),
			},
		})
		sent++
	}

	s.logger.Info("deadline reminders sent", zap.Int("count", sent), zap.Time("day", from))
	return sent, nil
}
