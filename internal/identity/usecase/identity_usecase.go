package usecase

import (
	"context"
	"strings"

	authdomain "ticktask-backend/internal/auth/domain"
	"ticktask-backend/internal/identity/domain"
	"ticktask-backend/internal/identity/repository"
	"ticktask-backend/pkg/apperror"

	"go.uber.org/zap"
)

type identityUsecase struct {
	groupRepo repository.GroupRepository
	users     UserFinder
	cache     repository.ScopeCache
	logger    *zap.Logger
}

// NewIdentityUsecase creates a new IdentityUsecase. A nil cache disables caching.
func NewIdentityUsecase(groupRepo repository.GroupRepository, users UserFinder, cache repository.ScopeCache, logger *zap.Logger) IdentityUsecase {
	if cache == nil {
		cache = repository.NewNoopScopeCache()
	}
	return &identityUsecase{
		groupRepo: groupRepo,
		users:     users,
		cache:     cache,
		logger:    logger.Named("identity"),
	}
}

func (u *identityUsecase) ResolveRole(ctx context.Context, user *authdomain.User) (domain.Role, error) {
	if user.IsStaff {
		return domain.RoleAdmin, nil
	}

	profile, err := u.groupRepo.GetProfile(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if profile == nil {
		// Rows created before profiles were transactional.
		u.logger.Warn("role profile missing, creating", zap.String("user_id", user.ID))
		if profile, err = u.groupRepo.EnsureProfile(ctx, user.ID); err != nil {
			return "", err
		}
	}

	switch profile.Role {
	case domain.RoleAdmin:
		return domain.RoleAdmin, nil
	case domain.RoleLeader:
		return domain.RoleLeader, nil
	}

	led, err := u.groupRepo.LedGroupIDs(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if len(led) > 0 {
		return domain.RoleLeader, nil
	}
	return domain.RoleMember, nil
}

func (u *identityUsecase) IsLeaderOf(ctx context.Context, userID, groupID string) (bool, error) {
	return u.groupRepo.IsLeaderOf(ctx, userID, groupID)
}

func (u *identityUsecase) LedMemberIDs(ctx context.Context, leaderID string) ([]string, error) {
	if ids, ok := u.cache.Get(ctx, leaderID); ok {
		return ids, nil
	}

	groupIDs, err := u.groupRepo.LedGroupIDs(ctx, leaderID)
	if err != nil {
		return nil, err
	}
	ids, err := u.groupRepo.MemberIDsOfGroups(ctx, groupIDs)
	if err != nil {
		return nil, err
	}

	u.cache.Set(ctx, leaderID, ids)
	return ids, nil
}

func (u *identityUsecase) requireAdmin(ctx context.Context, actor *authdomain.User) error {
	role, err := u.ResolveRole(ctx, actor)
	if err != nil {
		return err
	}
	if role != domain.RoleAdmin {
		return apperror.Forbidden("only administrators can manage groups and roles")
	}
	return nil
}

func (u *identityUsecase) CreateGroup(ctx context.Context, actor *authdomain.User, name string) (*domain.Group, error) {
	if err := u.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("group name is required")
	}

	group := &domain.Group{Name: name}
	if err := u.groupRepo.CreateGroup(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (u *identityUsecase) ListGroups(ctx context.Context, actor *authdomain.User) ([]*domain.Group, error) {
	if err := u.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	return u.groupRepo.ListGroups(ctx)
}

func (u *identityUsecase) ListMembers(ctx context.Context, actor *authdomain.User, groupID string) ([]*domain.GroupMembership, error) {
	role, err := u.ResolveRole(ctx, actor)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleAdmin {
		leads, err := u.groupRepo.IsLeaderOf(ctx, actor.ID, groupID)
		if err != nil {
			return nil, err
		}
		if !leads {
			return nil, apperror.Forbidden("not a leader of this group")
		}
	}
	if _, err := u.findGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return u.groupRepo.ListMemberships(ctx, groupID)
}

func (u *identityUsecase) SetMembership(ctx context.Context, actor *authdomain.User, groupID, userID string, role domain.MembershipRole) (*domain.GroupMembership, error) {
	if err := u.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	if role == "" {
		role = domain.MembershipMember
	}
	if !role.Valid() {
		return nil, apperror.Validation("invalid membership role %q", role)
	}
	if _, err := u.findGroup(ctx, groupID); err != nil {
		return nil, err
	}
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("user %s not found", userID)
	}

	// Leaders of the group before the change lose or gain members; the
	// user itself may have become a leader.
	stale, err := u.groupRepo.LeaderIDsOfGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	m := &domain.GroupMembership{UserID: userID, GroupID: groupID, Role: role}
	if err := u.groupRepo.UpsertMembership(ctx, m); err != nil {
		return nil, err
	}
	u.cache.Invalidate(ctx, append(stale, userID)...)
	return m, nil
}

func (u *identityUsecase) RemoveMembership(ctx context.Context, actor *authdomain.User, groupID, userID string) error {
	if err := u.requireAdmin(ctx, actor); err != nil {
		return err
	}
	if _, err := u.findGroup(ctx, groupID); err != nil {
		return err
	}
	stale, err := u.groupRepo.LeaderIDsOfGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if err := u.groupRepo.RemoveMembership(ctx, userID, groupID); err != nil {
		return err
	}
	u.cache.Invalidate(ctx, append(stale, userID)...)
	return nil
}

func (u *identityUsecase) SetUserRole(ctx context.Context, actor *authdomain.User, userID string, role domain.Role) error {
	if err := u.requireAdmin(ctx, actor); err != nil {
		return err
	}
	if !role.Valid() {
		return apperror.Validation("invalid role %q", role)
	}
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.NotFound("user %s not found", userID)
	}
	return u.groupRepo.SetProfileRole(ctx, userID, role)
}

func (u *identityUsecase) findGroup(ctx context.Context, groupID string) (*domain.Group, error) {
	group, err := u.groupRepo.FindGroupByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, apperror.NotFound("group %s not found", groupID)
	}
	return group, nil
}
