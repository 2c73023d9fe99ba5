package domain

import (
	"time"

	authdomain "ticktask-backend/internal/auth/domain"
)

// Conversation is a private (two participants) or group chat
type Conversation struct {
	ID           string            `json:"id" gorm:"primaryKey"`
	IsGroup      bool              `json:"is_group" gorm:"not null;default:false"`
	GroupName    string            `json:"group_name"`
	CreatedByID  string            `json:"created_by_id" gorm:"index;not null"`
	CreatedAt    time.Time         `json:"created_at"`
	Participants []authdomain.User `json:"participants" gorm:"many2many:conversation_participants"`
}

type ChatMessage struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	ConversationID string    `json:"conversation_id" gorm:"index;not null"`
	SenderID       string    `json:"sender_id" gorm:"index;not null"`
	Text           string    `json:"text" gorm:"not null"`
	Timestamp      time.Time `json:"timestamp" gorm:"index"`
}

// ConversationSeen records when a user last read a conversation
type ConversationSeen struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	ConversationID string    `json:"conversation_id" gorm:"not null;uniqueIndex:idx_seen_conversation_user"`
	UserID         string    `json:"user_id" gorm:"not null;uniqueIndex:idx_seen_conversation_user"`
	LastSeen       time.Time `json:"last_seen"`
}

// ParticipantIDs returns the ids of the loaded participants
func (c *Conversation) ParticipantIDs() []string {
	ids := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		ids = append(ids, p.ID)
	}
	return ids
}

// HasParticipant reports whether the user takes part in the conversation
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}
