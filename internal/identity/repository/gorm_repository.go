package repository

import (
	"context"
	"errors"
	"time"

	"ticktask-backend/internal/identity/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormGroupRepository struct {
	db *gorm.DB
}

// NewGormGroupRepository creates a GORM-based GroupRepository
func NewGormGroupRepository(db *gorm.DB) GroupRepository {
	return &gormGroupRepository{db: db}
}

func (r *gormGroupRepository) GetProfile(ctx context.Context, userID string) (*domain.RoleProfile, error) {
	var profile domain.RoleProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *gormGroupRepository) EnsureProfile(ctx context.Context, userID string) (*domain.RoleProfile, error) {
	now := time.Now().UTC()
	profile := domain.RoleProfile{UserID: userID, Role: domain.RoleMember, CreatedAt: now, UpdatedAt: now}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&profile).Error
	if err != nil {
		return nil, err
	}
	return r.GetProfile(ctx, userID)
}

func (r *gormGroupRepository) SetProfileRole(ctx context.Context, userID string, role domain.Role) error {
	if _, err := r.EnsureProfile(ctx, userID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&domain.RoleProfile{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{"role": role, "updated_at": time.Now().UTC()}).Error
}

func (r *gormGroupRepository) CreateGroup(ctx context.Context, group *domain.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	group.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *gormGroupRepository) FindGroupByID(ctx context.Context, id string) (*domain.Group, error) {
	var group domain.Group
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &group, nil
}

func (r *gormGroupRepository) ListGroups(ctx context.Context) ([]*domain.Group, error) {
	var groups []*domain.Group
	err := r.db.WithContext(ctx).Order("name ASC").Find(&groups).Error
	return groups, err
}

func (r *gormGroupRepository) UpsertMembership(ctx context.Context, m *domain.GroupMembership) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "group_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(m).Error
}

func (r *gormGroupRepository) RemoveMembership(ctx context.Context, userID, groupID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Delete(&domain.GroupMembership{}).Error
}

func (r *gormGroupRepository) ListMemberships(ctx context.Context, groupID string) ([]*domain.GroupMembership, error) {
	var memberships []*domain.GroupMembership
	err := r.db.WithContext(ctx).Where("group_id = ?", groupID).Order("created_at ASC").Find(&memberships).Error
	return memberships, err
}

func (r *gormGroupRepository) IsLeaderOf(ctx context.Context, userID, groupID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.GroupMembership{}).
		Where("user_id = ? AND group_id = ? AND role = ?", userID, groupID, domain.MembershipLeader).
		Count(&count).Error
	return count > 0, err
}

func (r *gormGroupRepository) LedGroupIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&domain.GroupMembership{}).
		Where("user_id = ? AND role = ?", userID, domain.MembershipLeader).
		Pluck("group_id", &ids).Error
	return ids, err
}

func (r *gormGroupRepository) MemberIDsOfGroups(ctx context.Context, groupIDs []string) ([]string, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&domain.GroupMembership{}).
		Where("group_id IN ?", groupIDs).
		Distinct().
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *gormGroupRepository) LeaderIDsOfGroup(ctx context.Context, groupID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&domain.GroupMembership{}).
		Where("group_id = ? AND role = ?", groupID, domain.MembershipLeader).
		Pluck("user_id", &ids).Error
	return ids, err
}
