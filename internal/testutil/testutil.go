// Package testutil provides an in-memory database and fixtures for tests.
package testutil

import (
	"testing"
	"time"

	authdomain "ticktask-backend/internal/auth/domain"
	identitydomain "ticktask-backend/internal/identity/domain"
	"ticktask-backend/internal/schema"
	"ticktask-backend/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewDB opens a fresh migrated SQLite database that lives for the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.NewSQLiteConnection(":memory:")
	require.NoError(t, err)
	require.NoError(t, schema.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Logger returns a logger that discards output.
func Logger() *zap.Logger {
	return zap.NewNop()
}

// CreateUser stores a user with a role profile.
func CreateUser(t testing.TB, db *gorm.DB, username string, role identitydomain.Role) *authdomain.User {
	t.Helper()
	now := time.Now().UTC()
	user := &authdomain.User{
		ID:        uuid.New().String(),
		Username:  username,
		Email:     username + "@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if role == identitydomain.RoleAdmin {
		user.IsStaff = true
	}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&identitydomain.RoleProfile{UserID: user.ID, Role: role, CreatedAt: now, UpdatedAt: now}).Error)
	return user
}

// CreateGroup stores a group with the given leader and members.
func CreateGroup(t testing.TB, db *gorm.DB, name string, leader *authdomain.User, members ...*authdomain.User) *identitydomain.Group {
	t.Helper()
	group := &identitydomain.Group{ID: uuid.New().String(), Name: name, CreatedAt: time.Now().UTC()}
	require.NoError(t, db.Create(group).Error)

	add := func(u *authdomain.User, role identitydomain.MembershipRole) {
		require.NoError(t, db.Create(&identitydomain.GroupMembership{
			ID:        uuid.New().String(),
			UserID:    u.ID,
			GroupID:   group.ID,
			Role:      role,
			CreatedAt: time.Now().UTC(),
		}).Error)
	}
	if leader != nil {
		add(leader, identitydomain.MembershipLeader)
	}
	for _, m := range members {
		add(m, identitydomain.MembershipMember)
	}
	return group
}
