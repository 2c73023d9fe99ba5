package domain

import "time"

// Role is the effective role of an actor.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleLeader Role = "leader"
	RoleMember Role = "member"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLeader, RoleMember:
		return true
	}
	return false
}

// MembershipRole is a user's role inside one group.
type MembershipRole string

const (
	MembershipMember MembershipRole = "member"
	MembershipLeader MembershipRole = "leader"
)

func (r MembershipRole) Valid() bool {
	return r == MembershipMember || r == MembershipLeader
}

// RoleProfile carries the global role of a user. Every user has exactly one.
type RoleProfile struct {
	UserID    string    `json:"user_id" gorm:"primaryKey"`
	Role      Role      `json:"role" gorm:"not null;default:member"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Group is a named collection of users.
type Group struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// GroupMembership joins a user to a group. Unique per (user, group).
type GroupMembership struct {
	ID        string         `json:"id" gorm:"primaryKey"`
	UserID    string         `json:"user_id" gorm:"not null;uniqueIndex:idx_membership_user_group"`
	GroupID   string         `json:"group_id" gorm:"not null;index;uniqueIndex:idx_membership_user_group"`
	Role      MembershipRole `json:"role" gorm:"not null;default:member"`
	CreatedAt time.Time      `json:"created_at"`
}
