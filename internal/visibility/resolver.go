package visibility

import (
	"context"
	"slices"

	authdomain "ticktask-backend/internal/auth/domain"
	identitydomain "ticktask-backend/internal/identity/domain"
	taskdomain "ticktask-backend/internal/task/domain"
	"ticktask-backend/pkg/apperror"
)

// RoleSource answers the role questions the resolver needs
type RoleSource interface {
	ResolveRole(ctx context.Context, user *authdomain.User) (identitydomain.Role, error)
	LedMemberIDs(ctx context.Context, leaderID string) ([]string, error)
}

// ActivityView selects whose activities an actor lists
type ActivityView struct {
	// All lists every activity; only staff may ask for it
	All bool
	// Team lists the activities of the users the actor oversees
	Team bool
}

// Resolver turns an actor into the scope of rows it may read or change
type Resolver struct {
	roles RoleSource
}

func NewResolver(roles RoleSource) *Resolver {
	return &Resolver{roles: roles}
}

func (r *Resolver) Role(ctx context.Context, actor *authdomain.User) (identitydomain.Role, error) {
	return r.roles.ResolveRole(ctx, actor)
}

// TaskScope returns the assignees whose tasks the actor can see. The same
// scope bounds the users the actor can list.
func (r *Resolver) TaskScope(ctx context.Context, actor *authdomain.User) (Scope, error) {
	role, err := r.roles.ResolveRole(ctx, actor)
	if err != nil {
		return Scope{}, err
	}
	switch role {
	case identitydomain.RoleAdmin:
		return Everything(), nil
	case identitydomain.RoleLeader:
		ids, err := r.roles.LedMemberIDs(ctx, actor.ID)
		if err != nil {
			return Scope{}, err
		}
		// A profile leader without a group still sees its own tasks.
		if !slices.Contains(ids, actor.ID) {
			ids = append(slices.Clone(ids), actor.ID)
		}
		return Only(ids...), nil
	default:
		return Only(actor.ID), nil
	}
}

// ActivityScope returns the subjects whose activities the actor lists.
func (r *Resolver) ActivityScope(ctx context.Context, actor *authdomain.User, view ActivityView) (Scope, error) {
	if view.All {
		if !actor.IsStaff {
			return Scope{}, apperror.Forbidden("only staff can list all activities")
		}
		return Everything(), nil
	}
	if !view.Team {
		return Only(actor.ID), nil
	}

	role, err := r.roles.ResolveRole(ctx, actor)
	if err != nil {
		return Scope{}, err
	}
	switch role {
	case identitydomain.RoleAdmin:
		return Everything(), nil
	case identitydomain.RoleLeader:
		ids, err := r.roles.LedMemberIDs(ctx, actor.ID)
		if err != nil {
			return Scope{}, err
		}
		return Only(ids...).Without(actor.ID), nil
	default:
		return Only(actor.ID), nil
	}
}

// CanView reports whether the actor may read the task
func (r *Resolver) CanView(ctx context.Context, actor *authdomain.User, task *taskdomain.Task) (bool, error) {
	if task.CreatorID == actor.ID || task.OwnerID == actor.ID {
		return true, nil
	}
	scope, err := r.TaskScope(ctx, actor)
	if err != nil {
		return false, err
	}
	return scope.Includes(task.AssigneeID), nil
}

// CanModify reports whether the actor may update or delete the task
func (r *Resolver) CanModify(ctx context.Context, actor *authdomain.User, task *taskdomain.Task) (bool, error) {
	if task.CreatorID == actor.ID || task.OwnerID == actor.ID || task.AssigneeID == actor.ID {
		return true, nil
	}
	role, err := r.roles.ResolveRole(ctx, actor)
	if err != nil {
		return false, err
	}
	switch role {
	case identitydomain.RoleAdmin:
		return true, nil
	case identitydomain.RoleLeader:
		ids, err := r.roles.LedMemberIDs(ctx, actor.ID)
		if err != nil {
			return false, err
		}
		return Only(ids...).Includes(task.AssigneeID), nil
	}
	return false, nil
}
