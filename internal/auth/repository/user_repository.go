package repository

import (
	"context"
	"errors"
	"time"

	authdomain "ticktask-backend/internal/auth/domain"
	identitydomain "ticktask-backend/internal/identity/domain"
	"ticktask-backend/internal/visibility"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of userRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

func (r *userRepository) CreateWithProfile(ctx context.Context, user *authdomain.User, role identitydomain.Role) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(&identitydomain.RoleProfile{
			UserID:    user.ID,
			Role:      role,
			CreatedAt: now,
			UpdatedAt: now,
		}).Error
	})
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*authdomain.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*authdomain.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg any) (*authdomain.User, error) {
	var user authdomain.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*authdomain.User, error) {
	result := make(map[string]*authdomain.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var users []*authdomain.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func (r *userRepository) List(ctx context.Context, scope visibility.Scope) ([]*authdomain.User, error) {
	var users []*authdomain.User
	err := scope.Apply(r.db.WithContext(ctx), "id").Order("username ASC").Find(&users).Error
	return users, err
}

func (r *userRepository) Update(ctx context.Context, user *authdomain.User) error {
	user.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) SaveRefreshToken(ctx context.Context, token *authdomain.RefreshToken) error {
	// Drop this user's expired tokens on the way in; valid ones stay for other devices.
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND expires_at < ?", token.UserID, time.Now().UTC()).
			Delete(&authdomain.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
}

func (r *userRepository) FindRefreshToken(ctx context.Context, token string) (*authdomain.RefreshToken, error) {
	var refreshToken authdomain.RefreshToken
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&refreshToken).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &refreshToken, nil
}

func (r *userRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Where("token = ?", token).Delete(&authdomain.RefreshToken{}).Error
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
