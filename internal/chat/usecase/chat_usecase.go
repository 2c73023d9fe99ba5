package usecase

import (
	"context"
	"strings"
	"time"

	authdomain "ticktask-backend/internal/auth/domain"
	"ticktask-backend/internal/chat/domain"
	"ticktask-backend/internal/chat/repository"
	"ticktask-backend/internal/notification"
	"ticktask-backend/pkg/apperror"
	"ticktask-backend/pkg/fcm"
	"ticktask-backend/pkg/logger"

	"go.uber.org/zap"
)

const pushPreviewLength = 120

type chatUsecase struct {
	repo     repository.ChatRepository
	users    UserFinder
	notifier notification.Notifier
	logger   *zap.Logger
}

// NewChatUsecase creates a new ChatUsecase. A nil notifier disables push
// notifications for new messages.
func NewChatUsecase(repo repository.ChatRepository, users UserFinder, notifier notification.Notifier, logger *zap.Logger) ChatUsecase {
	return &chatUsecase{
		repo:     repo,
		users:    users,
		notifier: notifier,
		logger:   logger.Named("chat"),
	}
}

func (u *chatUsecase) GetOrCreate(ctx context.Context, actor *authdomain.User, input GetOrCreateInput) (*ConversationView, bool, error) {
	if len(input.Participants) == 0 {
		return nil, false, apperror.Validation("at least 1 participant required")
	}
	ids := uniqueIDs(append(input.Participants, actor.ID))

	users, err := u.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, false, err
	}
	if len(users) != len(ids) {
		return nil, false, apperror.NotFound("some users not found")
	}

	if !input.IsGroup {
		if len(ids) != 2 {
			return nil, false, apperror.Validation("exactly 2 participants required for private chat")
		}
		existing, err := u.repo.FindPrivate(ctx, ids[0], ids[1])
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return u.view(ctx, actor, existing), false, nil
		}
	}

	conv := &domain.Conversation{
		IsGroup:     input.IsGroup,
		GroupName:   strings.TrimSpace(input.GroupName),
		CreatedByID: actor.ID,
	}
	if err := u.repo.CreateConversation(ctx, conv, ids); err != nil {
		return nil, false, err
	}
	logger.FromContext(ctx, u.logger).Info("conversation created",
		zap.String("conversation_id", conv.ID),
		zap.Bool("is_group", conv.IsGroup),
		zap.Int("participants", len(ids)))
	return u.view(ctx, actor, conv), true, nil
}

func (u *chatUsecase) List(ctx context.Context, actor *authdomain.User) ([]*ConversationView, error) {
	return u.list(ctx, actor, false)
}

func (u *chatUsecase) ListGroups(ctx context.Context, actor *authdomain.User) ([]*ConversationView, error) {
	return u.list(ctx, actor, true)
}

func (u *chatUsecase) list(ctx context.Context, actor *authdomain.User, groupsOnly bool) ([]*ConversationView, error) {
	convs, err := u.repo.ListForUser(ctx, actor.ID, groupsOnly)
	if err != nil {
		return nil, err
	}
	views := make([]*ConversationView, 0, len(convs))
	for _, c := range convs {
		views = append(views, u.view(ctx, actor, c))
	}
	return views, nil
}

func (u *chatUsecase) Send(ctx context.Context, actor *authdomain.User, conversationID, text string) (*MessageView, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperror.Validation("text is required")
	}
	conv, err := u.participantConversation(ctx, actor, conversationID)
	if err != nil {
		return nil, err
	}

	msg := &domain.ChatMessage{ConversationID: conv.ID, SenderID: actor.ID, Text: text}
	if err := u.repo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	if u.notifier != nil {
		title := actor.Username
		if conv.IsGroup && conv.GroupName != "" {
			title = conv.GroupName + ": " + actor.Username
		}
		for _, id := range conv.ParticipantIDs() {
			if id == actor.ID {
				continue
			}
			u.notifier.Push(ctx, id, fcm.Notification{
				Title: title,
				Body:  preview(text),
				Data: map[string]string{
					"type":            "chat_message",
					"conversation_id": conv.ID,
				},
			})
		}
	}
	return &MessageView{ChatMessage: msg, SenderUsername: actor.Username}, nil
}

func (u *chatUsecase) Messages(ctx context.Context, actor *authdomain.User, conversationID string) ([]*MessageView, error) {
	conv, err := u.participantConversation(ctx, actor, conversationID)
	if err != nil {
		return nil, err
	}
	msgs, err := u.repo.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(conv.Participants))
	for _, p := range conv.Participants {
		names[p.ID] = p.Username
	}
	views := make([]*MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, &MessageView{ChatMessage: m, SenderUsername: names[m.SenderID]})
	}
	return views, nil
}

func (u *chatUsecase) MarkSeen(ctx context.Context, actor *authdomain.User, conversationID string) error {
	conv, err := u.participantConversation(ctx, actor, conversationID)
	if err != nil {
		return err
	}
	return u.repo.UpsertSeen(ctx, conv.ID, actor.ID, time.Now().UTC())
}

func (u *chatUsecase) Unread(ctx context.Context, actor *authdomain.User, conversationID string) (int64, error) {
	conv, err := u.participantConversation(ctx, actor, conversationID)
	if err != nil {
		return 0, err
	}
	seen, err := u.repo.FindSeen(ctx, conv.ID, actor.ID)
	if err != nil {
		return 0, err
	}
	since := conv.CreatedAt
	if seen != nil {
		since = seen.LastSeen
	}
	return u.repo.CountMessagesAfter(ctx, conv.ID, actor.ID, since)
}

func (u *chatUsecase) participantConversation(ctx context.Context, actor *authdomain.User, id string) (*domain.Conversation, error) {
	conv, err := u.repo.FindConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, apperror.NotFound("conversation not found")
	}
	if !conv.HasParticipant(actor.ID) {
		return nil, apperror.Forbidden("not a participant of this conversation")
	}
	return conv, nil
}

func (u *chatUsecase) view(ctx context.Context, actor *authdomain.User, conv *domain.Conversation) *ConversationView {
	v := &ConversationView{
		ID:           conv.ID,
		IsGroup:      conv.IsGroup,
		GroupName:    conv.GroupName,
		CreatedAt:    conv.CreatedAt.UTC().Format(time.RFC3339),
		Participants: make([]UserRef, 0, len(conv.Participants)),
	}
	for _, p := range conv.Participants {
		ref := UserRef{ID: p.ID, Username: p.Username}
		v.Participants = append(v.Participants, ref)
		if p.ID == conv.CreatedByID {
			v.CreatedBy = &UserRef{ID: p.ID, Username: p.Username}
		}
		if !conv.IsGroup && v.OtherUser == nil && p.ID != actor.ID {
			v.OtherUser = &UserRef{ID: p.ID, Username: p.Username}
		}
	}
	if v.CreatedBy == nil && conv.CreatedByID != "" {
		logger.FromContext(ctx, u.logger).Debug("conversation creator is not a participant",
			zap.String("conversation_id", conv.ID))
		v.CreatedBy = &UserRef{ID: conv.CreatedByID}
	}
	return v
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= pushPreviewLength {
		return text
	}
	return string(runes[:pushPreviewLength]) + "…"
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
