package repository

import (
	"context"
	"errors"
	"time"

	authdomain "ticktask-backend/internal/auth/domain"
	"ticktask-backend/internal/chat/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const participantsTable = "conversation_participants"

type gormChatRepository struct {
	db *gorm.DB
}

// NewGormChatRepository creates a GORM-based ChatRepository
func NewGormChatRepository(db *gorm.DB) ChatRepository {
	return &gormChatRepository{db: db}
}

func (r *gormChatRepository) CreateConversation(ctx context.Context, conv *domain.Conversation, participantIDs []string) error {
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}
	conv.CreatedAt = time.Now().UTC()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv.Participants = nil
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		links := make([]map[string]interface{}, 0, len(participantIDs))
		for _, id := range participantIDs {
			links = append(links, map[string]interface{}{"conversation_id": conv.ID, "user_id": id})
		}
		if err := tx.Table(participantsTable).Create(&links).Error; err != nil {
			return err
		}
		var users []authdomain.User
		if err := tx.Where("id IN ?", participantIDs).Order("username ASC").Find(&users).Error; err != nil {
			return err
		}
		conv.Participants = users
		return nil
	})
}

func (r *gormChatRepository) FindConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := r.db.WithContext(ctx).Preload("Participants").Where("id = ?", id).First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

func (r *gormChatRepository) FindPrivate(ctx context.Context, userA, userB string) (*domain.Conversation, error) {
	// Private conversations whose participant set is exactly {userA, userB}.
	both := r.db.Table(participantsTable).
		Select("conversation_id").
		Where("user_id IN ?", []string{userA, userB}).
		Group("conversation_id").
		Having("COUNT(DISTINCT user_id) = 2")
	pairs := r.db.Table(participantsTable).
		Select("conversation_id").
		Group("conversation_id").
		Having("COUNT(*) = 2")

	var conv domain.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("is_group = ?", false).
		Where("id IN (?)", both).
		Where("id IN (?)", pairs).
		Order("created_at ASC").
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

func (r *gormChatRepository) ListForUser(ctx context.Context, userID string, groupsOnly bool) ([]*domain.Conversation, error) {
	mine := r.db.Table(participantsTable).Select("conversation_id").Where("user_id = ?", userID)

	query := r.db.WithContext(ctx).Preload("Participants").Where("id IN (?)", mine)
	if groupsOnly {
		query = query.Where("is_group = ?", true)
	}

	var convs []*domain.Conversation
	err := query.Order("created_at DESC").Find(&convs).Error
	return convs, err
}

func (r *gormChatRepository) CreateMessage(ctx context.Context, msg *domain.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *gormChatRepository) ListMessages(ctx context.Context, conversationID string) ([]*domain.ChatMessage, error) {
	var msgs []*domain.ChatMessage
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("timestamp ASC").
		Find(&msgs).Error
	return msgs, err
}

func (r *gormChatRepository) UpsertSeen(ctx context.Context, conversationID, userID string, at time.Time) error {
	seen := domain.ConversationSeen{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		UserID:         userID,
		LastSeen:       at,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_seen"}),
	}).Create(&seen).Error
}

func (r *gormChatRepository) FindSeen(ctx context.Context, conversationID, userID string) (*domain.ConversationSeen, error) {
	var seen domain.ConversationSeen
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		First(&seen).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &seen, nil
}

func (r *gormChatRepository) CountMessagesAfter(ctx context.Context, conversationID, userID string, after time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.ChatMessage{}).
		Where("conversation_id = ? AND sender_id <> ? AND timestamp > ?", conversationID, userID, after).
		Count(&n).Error
	return n, err
}
