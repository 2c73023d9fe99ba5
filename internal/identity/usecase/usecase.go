package usecase

import (
	"context"

	authdomain "ticktask-backend/internal/auth/domain"
	"ticktask-backend/internal/identity/domain"
)

// IdentityUsecase resolves roles and manages groups
type IdentityUsecase interface {
	// ResolveRole returns the effective role; is_staff overrides the profile
	ResolveRole(ctx context.Context, user *authdomain.User) (domain.Role, error)
	IsLeaderOf(ctx context.Context, userID, groupID string) (bool, error)
	// LedMemberIDs returns every member of every group the user leads
	LedMemberIDs(ctx context.Context, leaderID string) ([]string, error)

	CreateGroup(ctx context.Context, actor *authdomain.User, name string) (*domain.Group, error)
	ListGroups(ctx context.Context, actor *authdomain.User) ([]*domain.Group, error)
	ListMembers(ctx context.Context, actor *authdomain.User, groupID string) ([]*domain.GroupMembership, error)
	SetMembership(ctx context.Context, actor *authdomain.User, groupID, userID string, role domain.MembershipRole) (*domain.GroupMembership, error)
	RemoveMembership(ctx context.Context, actor *authdomain.User, groupID, userID string) error
	SetUserRole(ctx context.Context, actor *authdomain.User, userID string, role domain.Role) error
}

// UserFinder looks users up by id
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*authdomain.User, error)
}
