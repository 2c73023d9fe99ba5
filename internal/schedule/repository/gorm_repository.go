package repository

import (
	"context"
	"errors"
	"time"

	authdomain "ticktask-backend/internal/auth/domain"
	"ticktask-backend/internal/schedule/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormScheduleRepository struct {
	db *gorm.DB
}

// NewGormScheduleRepository creates a GORM-based ScheduleRepository
func NewGormScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &gormScheduleRepository{db: db}
}

func (r *gormScheduleRepository) CreateNote(ctx context.Context, note *domain.Note) error {
	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	note.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *gormScheduleRepository) ListNotes(ctx context.Context, authorID string) ([]*domain.Note, error) {
	var notes []*domain.Note
	err := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&notes).Error
	return notes, err
}

func (r *gormScheduleRepository) DeleteNote(ctx context.Context, id, authorID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND author_id = ?", id, authorID).Delete(&domain.Note{})
	return res.RowsAffected > 0, res.Error
}

func (r *gormScheduleRepository) CreateSchedule(ctx context.Context, s *domain.Schedule) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *gormScheduleRepository) FindSchedule(ctx context.Context, id, userID string) (*domain.Schedule, error) {
	var s domain.Schedule
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *gormScheduleRepository) ListSchedules(ctx context.Context, userID string) ([]*domain.Schedule, error) {
	var items []*domain.Schedule
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("entry_date ASC").
		Order("CASE WHEN entry_time IS NULL THEN 0 ELSE 1 END, entry_time ASC").
		Find(&items).Error
	return items, err
}

func (r *gormScheduleRepository) UpdateSchedule(ctx context.Context, s *domain.Schedule) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *gormScheduleRepository) DeleteSchedule(ctx context.Context, id, userID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Schedule{})
	return res.RowsAffected > 0, res.Error
}

func (r *gormScheduleRepository) CountSchedules(ctx context.Context, userID string) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Schedule{})
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	err := query.Count(&count).Error
	return count, err
}

func (r *gormScheduleRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&authdomain.User{}).Count(&count).Error
	return count, err
}
