package repository

import (
	"context"
	"errors"
	"time"

	"ticktask-backend/internal/task/domain"
	"ticktask-backend/internal/visibility"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	nullsLastDeadline = "CASE WHEN deadline IS NULL THEN 1 ELSE 0 END"
	priorityRank      = "CASE priority WHEN 'High' THEN 0 WHEN 'Medium' THEN 1 ELSE 2 END"
)

// orderings maps accepted ordering parameters to ORDER BY clauses
var orderings = map[string]string{
	"deadline":    nullsLastDeadline + ", deadline ASC",
	"-deadline":   nullsLastDeadline + ", deadline DESC",
	"priority":    priorityRank + " ASC, created_at DESC",
	"-priority":   priorityRank + " DESC, created_at DESC",
	"status":      "status ASC, created_at DESC",
	"-status":     "status DESC, created_at DESC",
	"created_at":  "created_at ASC",
	"-created_at": "created_at DESC",
}

// ValidOrdering reports whether the ordering parameter is supported
func ValidOrdering(ordering string) bool {
	_, ok := orderings[ordering]
	return ok
}

// gormTaskRepository implements TaskRepository using GORM
type gormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GORM-based TaskRepository
func NewGormTaskRepository(db *gorm.DB) TaskRepository {
	return &gormTaskRepository{db: db}
}

func (r *gormTaskRepository) Create(ctx context.Context, task *domain.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *gormTaskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (r *gormTaskRepository) List(ctx context.Context, scope visibility.Scope, filter ListFilter) ([]*domain.Task, int64, error) {
	var tasks []*domain.Task
	var total int64

	query := scope.Apply(r.db.WithContext(ctx).Model(&domain.Task{}), "assignee_id")
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", *filter.Priority)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, ok := orderings[filter.Ordering]
	if !ok {
		order = nullsLastDeadline + ", deadline ASC, created_at DESC"
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	err := query.Order(order).Find(&tasks).Error
	return tasks, total, err
}

func (r *gormTaskRepository) Update(ctx context.Context, task *domain.Task) error {
	task.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *gormTaskRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Task{}, "id = ?", id).Error
	})
}

func (r *gormTaskRepository) MarkOverdue(ctx context.Context, assigneeID string, now time.Time) (int64, error) {
	// UpdateColumns skips hooks; the BeforeSave derivation would read a zero Task.
	res := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("assignee_id = ? AND is_completed = ? AND deadline < ?", assigneeID, false, now).
		Where("status NOT IN ?", []domain.TaskStatus{domain.TaskStatusOverdue, domain.TaskStatusCompleted}).
		UpdateColumns(map[string]interface{}{
			"status":     domain.TaskStatusOverdue,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}

func (r *gormTaskRepository) CountByStatus(ctx context.Context, assigneeIDs []string) ([]StatusCount, error) {
	var rows []StatusCount
	if len(assigneeIDs) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).Model(&domain.Task{}).
		Select("assignee_id, status, priority, COUNT(*) AS count").
		Where("assignee_id IN ?", assigneeIDs).
		Group("assignee_id, status, priority").
		Scan(&rows).Error
	return rows, err
}

func (r *gormTaskRepository) FindDueBetween(ctx context.Context, from, to time.Time) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := r.db.WithContext(ctx).
		Where("deadline >= ? AND deadline < ? AND is_completed = ?", from, to, false).
		Order("deadline ASC").
		Find(&tasks).Error
	return tasks, err
}

func (r *gormTaskRepository) CreateComment(ctx context.Context, comment *domain.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	comment.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *gormTaskRepository) ListComments(ctx context.Context, taskID string) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Order("created_at ASC").Find(&comments).Error
	return comments, err
}

func (r *gormTaskRepository) RecentComments(ctx context.Context, taskIDs []string, n int) (map[string][]*domain.Comment, error) {
	result := make(map[string][]*domain.Comment, len(taskIDs))
	if len(taskIDs) == 0 || n <= 0 {
		return result, nil
	}
	var comments []*domain.Comment
	err := r.db.WithContext(ctx).
		Where("task_id IN ?", taskIDs).
		Order("created_at DESC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		if len(result[c.TaskID]) < n {
			result[c.TaskID] = append(result[c.TaskID], c)
		}
	}
	return result, nil
}
