package usecase

import (
	"context"

	authdomain "ticktask-backend/internal/auth/domain"
	"ticktask-backend/internal/schedule/domain"
)

// ScheduleUsecase manages a user's private notes and calendar entries
type ScheduleUsecase interface {
	ListNotes(ctx context.Context, actor *authdomain.User) ([]*domain.Note, error)
	CreateNote(ctx context.Context, actor *authdomain.User, input NoteInput) (*domain.Note, error)
	DeleteNote(ctx context.Context, actor *authdomain.User, id string) error

	ListSchedules(ctx context.Context, actor *authdomain.User) ([]*domain.Schedule, error)
	GetSchedule(ctx context.Context, actor *authdomain.User, id string) (*domain.Schedule, error)
	CreateSchedule(ctx context.Context, actor *authdomain.User, input ScheduleInput) (*domain.Schedule, error)
	// UpdateSchedule applies the non-nil fields of the patch
	UpdateSchedule(ctx context.Context, actor *authdomain.User, id string, patch SchedulePatch) (*domain.Schedule, error)
	DeleteSchedule(ctx context.Context, actor *authdomain.User, id string) error

	// DashboardStats counts the actor's entries; staff get every entry and the user count
	DashboardStats(ctx context.Context, actor *authdomain.User) (*domain.DashboardStats, error)
}

type NoteInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type ScheduleInput struct {
	Name  string  `json:"name"`
	Date  string  `json:"date"`
	Time  *string `json:"time"`
	Notes string  `json:"notes"`
}

// SchedulePatch carries a partial update. An empty Time clears it.
type SchedulePatch struct {
	Name  *string `json:"name"`
	Date  *string `json:"date"`
	Time  *string `json:"time"`
	Notes *string `json:"notes"`
}
