package repository

import (
	"context"
	"time"

	"ticktask-backend/internal/chat/domain"
)

// ChatRepository defines data access for conversations and messages
type ChatRepository interface {
	// CreateConversation stores the conversation and links the participants
	CreateConversation(ctx context.Context, conv *domain.Conversation, participantIDs []string) error
	// FindConversation returns nil, nil when the conversation does not exist
	FindConversation(ctx context.Context, id string) (*domain.Conversation, error)
	// FindPrivate returns the 1:1 conversation between two users, or nil
	FindPrivate(ctx context.Context, userA, userB string) (*domain.Conversation, error)
	ListForUser(ctx context.Context, userID string, groupsOnly bool) ([]*domain.Conversation, error)

	CreateMessage(ctx context.Context, msg *domain.ChatMessage) error
	ListMessages(ctx context.Context, conversationID string) ([]*domain.ChatMessage, error)

	UpsertSeen(ctx context.Context, conversationID, userID string, at time.Time) error
	// FindSeen returns nil, nil when the user never opened the conversation
	FindSeen(ctx context.Context, conversationID, userID string) (*domain.ConversationSeen, error)
	// CountMessagesAfter counts messages newer than after not sent by userID
	CountMessagesAfter(ctx context.Context, conversationID, userID string, after time.Time) (int64, error)
}
