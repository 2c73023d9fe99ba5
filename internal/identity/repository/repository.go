package repository

import (
	"context"

	"ticktask-backend/internal/identity/domain"
)

// GroupRepository defines data access for role profiles, groups and memberships
type GroupRepository interface {
	// GetProfile returns nil, nil when the user has no profile row
	GetProfile(ctx context.Context, userID string) (*domain.RoleProfile, error)
	// EnsureProfile returns the existing profile or creates a member profile
	EnsureProfile(ctx context.Context, userID string) (*domain.RoleProfile, error)
	SetProfileRole(ctx context.Context, userID string, role domain.Role) error

	CreateGroup(ctx context.Context, group *domain.Group) error
	FindGroupByID(ctx context.Context, id string) (*domain.Group, error)
	ListGroups(ctx context.Context) ([]*domain.Group, error)

	// UpsertMembership inserts or updates the role of (user, group)
	UpsertMembership(ctx context.Context, m *domain.GroupMembership) error
	RemoveMembership(ctx context.Context, userID, groupID string) error
	ListMemberships(ctx context.Context, groupID string) ([]*domain.GroupMembership, error)

	IsLeaderOf(ctx context.Context, userID, groupID string) (bool, error)
	// LedGroupIDs returns the groups where the user holds the leader role
	LedGroupIDs(ctx context.Context, userID string) ([]string, error)
	// MemberIDsOfGroups returns the distinct users belonging to any of the groups
	MemberIDsOfGroups(ctx context.Context, groupIDs []string) ([]string, error)
	LeaderIDsOfGroup(ctx context.Context, groupID string) ([]string, error)
}

// ScopeCache caches the member set of the groups a leader leads.
type ScopeCache interface {
	Get(ctx context.Context, leaderID string) ([]string, bool)
	Set(ctx context.Context, leaderID string, memberIDs []string)
	Invalidate(ctx context.Context, leaderIDs ...string)
}
