package repository

import (
	"context"

	authdomain "ticktask-backend/internal/auth/domain"
	identitydomain "ticktask-backend/internal/identity/domain"
	"ticktask-backend/internal/visibility"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// CreateWithProfile stores the user and its role profile atomically
	CreateWithProfile(ctx context.Context, user *authdomain.User, role identitydomain.Role) error
	FindByID(ctx context.Context, id string) (*authdomain.User, error)
	FindByUsername(ctx context.Context, username string) (*authdomain.User, error)
	// FindByIDs returns the users that exist, keyed by id
	FindByIDs(ctx context.Context, ids []string) (map[string]*authdomain.User, error)
	// List returns users in scope ordered by username
	List(ctx context.Context, scope visibility.Scope) ([]*authdomain.User, error)
	Update(ctx context.Context, user *authdomain.User) error

	SaveRefreshToken(ctx context.Context, token *authdomain.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*authdomain.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
}

// FCMTokenRepository defines the interface for FCM token operations
type FCMTokenRepository interface {
	SaveToken(ctx context.Context, userID, token, deviceInfo string) error
	GetTokensByUserID(ctx context.Context, userID string) ([]authdomain.FCMToken, error)
	DeleteToken(ctx context.Context, token string) error
}
