package repository

import (
	"context"
	"strings"
	"time"

	"ticktask-backend/internal/activity/domain"
	"ticktask-backend/internal/visibility"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormActivityRepository struct {
	db *gorm.DB
}

// NewGormActivityRepository creates a new GORM-based ActivityRepository
func NewGormActivityRepository(db *gorm.DB) ActivityRepository {
	return &gormActivityRepository{db: db}
}

func (r *gormActivityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *gormActivityRepository) List(ctx context.Context, scope visibility.Scope, filter domain.ListFilter) ([]*domain.Activity, int64, error) {
	var activities []*domain.Activity
	var total int64

	query := scope.Apply(r.db.WithContext(ctx).Model(&domain.Activity{}), "activities.user_id")
	if filter.ActionContains != "" {
		query = query.Where("LOWER(activities.action) LIKE ?", "%"+strings.ToLower(filter.ActionContains)+"%")
	}
	if filter.Username != "" {
		query = query.Joins("JOIN users ON users.id = activities.user_id").
			Where("users.username = ?", filter.Username)
	}
	if filter.DateFrom != nil {
		query = query.Where("activities.created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("activities.created_at < ?", *filter.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	err := query.Select("activities.*").
		Preload("User").
		Preload("SourceUser").
		Order("activities.created_at DESC").
		Find(&activities).Error
	if err != nil {
		return nil, 0, err
	}
	for _, a := range activities {
		a.ResolveNames()
	}
	return activities, total, nil
}
