package usecase

import (
	"context"
	"testing"

	authdomain "ticktask-backend/internal/auth/domain"
	authrepo "ticktask-backend/internal/auth/repository"
	"ticktask-backend/internal/chat/repository"
	identitydomain "ticktask-backend/internal/identity/domain"
	"ticktask-backend/internal/testutil"
	"ticktask-backend/pkg/apperror"
	"ticktask-backend/pkg/fcm"
	"ticktask-backend/pkg/mailer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pushRecorder struct {
	to []string
}

func (p *pushRecorder) Email(context.Context, mailer.Message) {}

func (p *pushRecorder) Push(_ context.Context, userID string, _ fcm.Notification) {
	p.to = append(p.to, userID)
}

type chatFixture struct {
	uc     ChatUsecase
	pushes *pushRecorder
	alice  *authdomain.User
	bob    *authdomain.User
	carol  *authdomain.User
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	db := testutil.NewDB(t)
	pushes := &pushRecorder{}
	return &chatFixture{
		uc:     NewChatUsecase(repository.NewGormChatRepository(db), authrepo.NewUserRepository(db), pushes, testutil.Logger()),
		pushes: pushes,
		alice:  testutil.CreateUser(t, db, "alice", identitydomain.RoleMember),
		bob:    testutil.CreateUser(t, db, "bob", identitydomain.RoleMember),
		carol:  testutil.CreateUser(t, db, "carol", identitydomain.RoleMember),
	}
}

func TestGetOrCreate_PrivateIsReused(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	first, created, err := f.uc.GetOrCreate(ctx, f.alice, GetOrCreateInput{Participants: []string{f.bob.ID}})
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, first.OtherUser)
	assert.Equal(t, "bob", first.OtherUser.Username)
	assert.Len(t, first.Participants, 2)

	again, created, err := f.uc.GetOrCreate(ctx, f.bob, GetOrCreateInput{Participants: []string{f.alice.ID, f.bob.ID}})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "alice", again.OtherUser.Username)
}

func TestGetOrCreate_PrivateIgnoresGroups(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	group, _, err := f.uc.GetOrCreate(ctx, f.alice, GetOrCreateInput{Participants: []string{f.bob.ID}, IsGroup: true, GroupName: "duo"})
	require.NoError(t, err)

	private, created, err := f.uc.GetOrCreate(ctx, f.alice, GetOrCreateInput{Participants: []string{f.bob.ID}})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, group.ID, private.ID)
}

func TestGetOrCreate_GroupAlwaysNew(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	input := GetOrCreateInput{Participants: []string{f.bob.ID, f.carol.ID}, IsGroup: true, GroupName: "team"}

	a, created, err := f.uc.GetOrCreate(ctx, f.alice, input)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Nil(t, a.OtherUser)
	assert.Equal(t, "alice", a.CreatedBy.Username)

	b, _, err := f.uc.GetOrCreate(ctx, f.alice, input)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	groups, err := f.uc.ListGroups(ctx, f.carol)
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}

func TestGetOrCreate_Validation(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, _, err := f.uc.GetOrCreate(ctx, f.alice, GetOrCreateInput{})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	_, _, err = f.uc.GetOrCreate(ctx, f.alice, GetOrCreateInput{Participants: []string{f.alice.ID}})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	_, _, err = f.uc.GetOrCreate(ctx, f.alice, GetOrCreateInput{Participants: []string{f.bob.ID, f.carol.ID}})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	_, _, err = f.uc.GetOrCreate(ctx, f.alice, GetOrCreateInput{Participants: []string{"ghost"}})
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
}

func TestMessagesAndUnread(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	conv, _, err := f.uc.GetOrCreate(ctx, f.alice, GetOrCreateInput{Participants: []string{f.bob.ID}})
	require.NoError(t, err)

	_, err = f.uc.Send(ctx, f.alice, conv.ID, "hi")
	require.NoError(t, err)
	_, err = f.uc.Send(ctx, f.alice, conv.ID, "are you there?")
	require.NoError(t, err)
	assert.Equal(t, []string{f.bob.ID, f.bob.ID}, f.pushes.to)

	unread, err := f.uc.Unread(ctx, f.bob, conv.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	unread, err = f.uc.Unread(ctx, f.alice, conv.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	require.NoError(t, f.uc.MarkSeen(ctx, f.bob, conv.ID))
	unread, err = f.uc.Unread(ctx, f.bob, conv.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	_, err = f.uc.Send(ctx, f.alice, conv.ID, "ping")
	require.NoError(t, err)
	unread, err = f.uc.Unread(ctx, f.bob, conv.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	msgs, err := f.uc.Messages(ctx, f.bob, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "hi", msgs[0].Text)
	assert.Equal(t, "ping", msgs[2].Text)
	assert.Equal(t, "alice", msgs[0].SenderUsername)
}

func TestNonParticipantIsForbidden(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	conv, _, err := f.uc.GetOrCreate(ctx, f.alice, GetOrCreateInput{Participants: []string{f.bob.ID}})
	require.NoError(t, err)

	_, err = f.uc.Send(ctx, f.carol, conv.ID, "intrude")
	assert.True(t, apperror.Is(err, apperror.CodeForbidden))
	_, err = f.uc.Messages(ctx, f.carol, conv.ID)
	assert.True(t, apperror.Is(err, apperror.CodeForbidden))
	assert.True(t, apperror.Is(f.uc.MarkSeen(ctx, f.carol, conv.ID), apperror.CodeForbidden))
	_, err = f.uc.Unread(ctx, f.carol, conv.ID)
	assert.True(t, apperror.Is(err, apperror.CodeForbidden))

	_, err = f.uc.Send(ctx, f.alice, conv.ID, "   ")
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
	_, err = f.uc.Messages(ctx, f.alice, "missing")
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))

	convs, err := f.uc.List(ctx, f.carol)
	require.NoError(t, err)
	assert.Empty(t, convs)
}
