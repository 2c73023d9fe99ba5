package usecase

import (
	"context"

	authdomain "ticktask-backend/internal/auth/domain"
	"ticktask-backend/internal/chat/domain"
)

// ChatUsecase manages conversations between users
type ChatUsecase interface {
	// GetOrCreate returns an existing private conversation or creates a new
	// one. Group conversations are always new. The actor always takes part.
	GetOrCreate(ctx context.Context, actor *authdomain.User, input GetOrCreateInput) (*ConversationView, bool, error)
	List(ctx context.Context, actor *authdomain.User) ([]*ConversationView, error)
	ListGroups(ctx context.Context, actor *authdomain.User) ([]*ConversationView, error)

	Send(ctx context.Context, actor *authdomain.User, conversationID, text string) (*MessageView, error)
	// Messages lists the conversation oldest first
	Messages(ctx context.Context, actor *authdomain.User, conversationID string) ([]*MessageView, error)

	MarkSeen(ctx context.Context, actor *authdomain.User, conversationID string) error
	Unread(ctx context.Context, actor *authdomain.User, conversationID string) (int64, error)
}

type GetOrCreateInput struct {
	Participants []string `json:"participants"`
	IsGroup      bool     `json:"is_group"`
	GroupName    string   `json:"group_name"`
}

// UserRef is the public part of a user shown in chat payloads
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ConversationView is a conversation as seen by one participant
type ConversationView struct {
	ID           string    `json:"id"`
	IsGroup      bool      `json:"is_group"`
	GroupName    string    `json:"group_name"`
	CreatedBy    *UserRef  `json:"created_by"`
	CreatedAt    string    `json:"created_at"`
	Participants []UserRef `json:"participants"`
	// OtherUser is the counterpart of a private conversation
	OtherUser *UserRef `json:"other_user"`
}

type MessageView struct {
	*domain.ChatMessage
	SenderUsername string `json:"sender_username"`
}

// UserFinder looks chat participants up
type UserFinder interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]*authdomain.User, error)
}
