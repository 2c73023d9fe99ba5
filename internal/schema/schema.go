// Package schema lists the persisted models and migrates them.
package schema

import (
	activitydomain "ticktask-backend/internal/activity/domain"
	authdomain "ticktask-backend/internal/auth/domain"
	chatdomain "ticktask-backend/internal/chat/domain"
	identitydomain "ticktask-backend/internal/identity/domain"
	scheduledomain "ticktask-backend/internal/schedule/domain"
	taskdomain "ticktask-backend/internal/task/domain"

	"gorm.io/gorm"
)

// Models returns every model in dependency order
func Models() []interface{} {
	return []interface{}{
		&authdomain.User{},
		&authdomain.RefreshToken{},
		&authdomain.FCMToken{},
		&identitydomain.RoleProfile{},
		&identitydomain.Group{},
		&identitydomain.GroupMembership{},
		&taskdomain.Task{},
		&taskdomain.Comment{},
		&activitydomain.Activity{},
		&chatdomain.Conversation{},
		&chatdomain.ChatMessage{},
		&chatdomain.ConversationSeen{},
		&scheduledomain.Note{},
		&scheduledomain.Schedule{},
	}
}

// Migrate runs AutoMigrate for all models
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
