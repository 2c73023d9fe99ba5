package repository

import (
	"context"

	"ticktask-backend/internal/schedule/domain"
)

// ScheduleRepository defines data access for notes and calendar entries.
// Every lookup is bound to the owning user.
type ScheduleRepository interface {
	CreateNote(ctx context.Context, note *domain.Note) error
	ListNotes(ctx context.Context, authorID string) ([]*domain.Note, error)
	// DeleteNote reports whether a note of the author was removed
	DeleteNote(ctx context.Context, id, authorID string) (bool, error)

	CreateSchedule(ctx context.Context, s *domain.Schedule) error
	// FindSchedule returns nil, nil when the user has no such entry
	FindSchedule(ctx context.Context, id, userID string) (*domain.Schedule, error)
	// ListSchedules orders by date, then time with untimed entries first
	ListSchedules(ctx context.Context, userID string) ([]*domain.Schedule, error)
	UpdateSchedule(ctx context.Context, s *domain.Schedule) error
	DeleteSchedule(ctx context.Context, id, userID string) (bool, error)

	// CountSchedules counts the user's entries, or all entries for ""
	CountSchedules(ctx context.Context, userID string) (int64, error)
	CountUsers(ctx context.Context) (int64, error)
}
