package usecase

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	authdomain "ticktask-backend/internal/auth/domain"
	"ticktask-backend/internal/schedule/domain"
	"ticktask-backend/internal/schedule/repository"
	"ticktask-backend/pkg/apperror"
	"ticktask-backend/pkg/logger"

	"go.uber.org/zap"
)

const (
	maxNoteTitle    = 100
	maxScheduleName = 255
)

// accepted time-of-day inputs, normalized to domain.TimeLayout
var timeLayouts = []string{domain.TimeLayout, "15:04"}

type scheduleUsecase struct {
	repo   repository.ScheduleRepository
	logger *zap.Logger
}

func NewScheduleUsecase(repo repository.ScheduleRepository, logger *zap.Logger) ScheduleUsecase {
	return &scheduleUsecase{repo: repo, logger: logger.Named("schedule")}
}

func (u *scheduleUsecase) ListNotes(ctx context.Context, actor *authdomain.User) ([]*domain.Note, error) {
	return u.repo.ListNotes(ctx, actor.ID)
}

func (u *scheduleUsecase) CreateNote(ctx context.Context, actor *authdomain.User, input NoteInput) (*domain.Note, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperror.Validation("title is required")
	}
	if utf8.RuneCountInString(title) > maxNoteTitle {
		return nil, apperror.Validation("title must be at most %d characters", maxNoteTitle)
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, apperror.Validation("content is required")
	}

	note := &domain.Note{Title: title, Content: input.Content, AuthorID: actor.ID}
	if err := u.repo.CreateNote(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (u *scheduleUsecase) DeleteNote(ctx context.Context, actor *authdomain.User, id string) error {
	deleted, err := u.repo.DeleteNote(ctx, id, actor.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.NotFound("note %s not found", id)
	}
	return nil
}

func (u *scheduleUsecase) ListSchedules(ctx context.Context, actor *authdomain.User) ([]*domain.Schedule, error) {
	return u.repo.ListSchedules(ctx, actor.ID)
}

func (u *scheduleUsecase) GetSchedule(ctx context.Context, actor *authdomain.User, id string) (*domain.Schedule, error) {
	s, err := u.repo.FindSchedule(ctx, id, actor.ID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, apperror.NotFound("schedule %s not found", id)
	}
	return s, nil
}

func (u *scheduleUsecase) CreateSchedule(ctx context.Context, actor *authdomain.User, input ScheduleInput) (*domain.Schedule, error) {
	s := &domain.Schedule{UserID: actor.ID, Notes: input.Notes}
	if err := setName(s, input.Name); err != nil {
		return nil, err
	}
	if err := setDate(s, input.Date); err != nil {
		return nil, err
	}
	if err := setTime(s, input.Time); err != nil {
		return nil, err
	}

	if err := u.repo.CreateSchedule(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (u *scheduleUsecase) UpdateSchedule(ctx context.Context, actor *authdomain.User, id string, patch SchedulePatch) (*domain.Schedule, error) {
	s, err := u.GetSchedule(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if err := setName(s, *patch.Name); err != nil {
			return nil, err
		}
	}
	if patch.Date != nil {
		if err := setDate(s, *patch.Date); err != nil {
			return nil, err
		}
	}
	if patch.Time != nil {
		if err := setTime(s, patch.Time); err != nil {
			return nil, err
		}
	}
	if patch.Notes != nil {
		s.Notes = *patch.Notes
	}

	if err := u.repo.UpdateSchedule(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (u *scheduleUsecase) DeleteSchedule(ctx context.Context, actor *authdomain.User, id string) error {
	deleted, err := u.repo.DeleteSchedule(ctx, id, actor.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.NotFound("schedule %s not found", id)
	}
	return nil
}

func (u *scheduleUsecase) DashboardStats(ctx context.Context, actor *authdomain.User) (*domain.DashboardStats, error) {
	if !actor.IsStaff {
		count, err := u.repo.CountSchedules(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		return &domain.DashboardStats{Schedules: count}, nil
	}

	schedules, err := u.repo.CountSchedules(ctx, "")
	if err != nil {
		return nil, err
	}
	users, err := u.repo.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx, u.logger).Debug("dashboard stats",
		zap.Int64("schedules", schedules), zap.Int64("users", users))
	return &domain.DashboardStats{Schedules: schedules, Users: &users}, nil
}

func setName(s *domain.Schedule, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperror.Validation("name is required")
	}
	if utf8.RuneCountInString(name) > maxScheduleName {
		return apperror.Validation("name must be at most %d characters", maxScheduleName)
	}
	s.Name = name
	return nil
}

func setDate(s *domain.Schedule, value string) error {
	d, err := time.Parse(domain.DateLayout, strings.TrimSpace(value))
	if err != nil {
		return apperror.Validation("date must be in YYYY-MM-DD format")
	}
	s.Date = d.Format(domain.DateLayout)
	return nil
}

func setTime(s *domain.Schedule, value *string) error {
	if value == nil || strings.TrimSpace(*value) == "" {
		s.Time = nil
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(*value)); err == nil {
			formatted := t.Format(domain.TimeLayout)
			s.Time = &formatted
			return nil
		}
	}
	return apperror.Validation("time must be in HH:MM[:SS] format")
}
