package usecase

import (
	"context"

	authdomain "ticktask-backend/internal/auth/domain"
	authdto "ticktask-backend/internal/auth/dto"
	identitydomain "ticktask-backend/internal/identity/domain"
	"ticktask-backend/internal/visibility"
)

// AuthUsecase covers accounts, tokens and devices
type AuthUsecase interface {
	Register(ctx context.Context, req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	Login(ctx context.Context, req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*authdto.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateToken(ctx context.Context, token string) (*authdomain.User, error)

	Me(ctx context.Context, user *authdomain.User) (*authdto.MeResponse, error)
	// ListUsers returns the users the actor can see, best matches first when searching
	ListUsers(ctx context.Context, actor *authdomain.User, search string) ([]*authdomain.User, error)

	RegisterFCMToken(ctx context.Context, userID, token, deviceInfo string) error
	UnregisterFCMToken(ctx context.Context, token string) error
}

// RoleResolver resolves the effective role of a user
type RoleResolver interface {
	ResolveRole(ctx context.Context, user *authdomain.User) (identitydomain.Role, error)
}

// UserScopeResolver resolves which users an actor may see
type UserScopeResolver interface {
	TaskScope(ctx context.Context, actor *authdomain.User) (visibility.Scope, error)
}
