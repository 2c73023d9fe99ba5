package notification

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	authdomain "ticktask-backend/internal/auth/domain"
	"ticktask-backend/pkg/fcm"
	"ticktask-backend/pkg/mailer"
)

type recordingSender struct {
	mu       sync.Mutex
	sent     []mailer.Message
	failures int
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("smtp unavailable")
	}
	s.sent = append(s.sent, msg)
	return nil
}

type fakeTokens struct {
	tokens  map[string][]string
	deleted []string
}

func (f *fakeTokens) SaveToken(context.Context, string, string, string) error { return nil }

func (f *fakeTokens) GetTokensByUserID(_ context.Context, userID string) ([]authdomain.FCMToken, error) {
	var out []authdomain.FCMToken
	for _, tok := range f.tokens[userID] {
		out = append(out, authdomain.FCMToken{UserID: userID, Token: tok})
	}
	return out, nil
}

func (f *fakeTokens) DeleteToken(_ context.Context, token string) error {
	f.deleted = append(f.deleted, token)
	return nil
}

type fakePush struct {
	sent   [][]string
	reject []string
}

func (f *fakePush) SendToDevices(_ context.Context, tokens []string, _ fcm.Notification) ([]string, error) {
	f.sent = append(f.sent, tokens)
	return f.reject, nil
}

func openOutbox(t *testing.T) *Outbox {
	t.Helper()
	o, err := OpenOutbox(filepath.Join(t.TempDir(), "outbox.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })
	return o
}

func TestOutbox_FIFO(t *testing.T) {
	o := openOutbox(t)

	for _, subject := range []string{"one", "two", "three"} {
		require.NoError(t, o.Enqueue(EmailJob(mailer.Message{To: []string{"a@example.com"}, Subject: subject})))
		time.Sleep(time.Millisecond)
	}

	size, err := o.Size()
	require.NoError(t, err)
	assert.Equal(t, 3, size)

	jobs, err := o.GetBatch(2)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "one", jobs[0].Email.Subject)
	assert.Equal(t, "two", jobs[1].Email.Subject)

	require.NoError(t, o.Requeue(jobs[0]))
	jobs, err = o.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, "one", jobs[2].Email.Subject)

	require.NoError(t, o.Remove(jobs[0]))
	size, err = o.Size()
	require.NoError(t, err)
	assert.Equal(t, 2, size)
}

func TestOutbox_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outbox.db")
	o, err := OpenOutbox(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, o.Enqueue(PushJob("u1", fcm.Notification{Title: "hi"})))
	require.NoError(t, o.Close())

	o, err = OpenOutbox(path, zap.NewNop())
	require.NoError(t, err)
	defer o.Close()
	jobs, err := o.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, KindPush, jobs[0].Kind)
	assert.Equal(t, "u1", jobs[0].Push.UserID)
	assert.Equal(t, "hi", jobs[0].Push.Title)
}

func TestOutbox_MovesUndecodableEntriesAside(t *testing.T) {
	o := openOutbox(t)

	require.NoError(t, o.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(o.bucket).Put([]byte("00000000000000000000_broken"), []byte("{not json"))
	}))
	require.NoError(t, o.Enqueue(EmailJob(mailer.Message{To: []string{"a@example.com"}, Subject: "ok"})))

	jobs, err := o.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "ok", jobs[0].Email.Subject)

	size, err := o.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, size)
	dead, err := o.DeadSize()
	require.NoError(t, err)
	assert.Equal(t, 1, dead)

	jobs, err = o.GetBatch(10)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestDispatcher_RetriesThenDelivers(t *testing.T) {
	o := openOutbox(t)
	sender := &recordingSender{failures: 1}
	d := NewDispatcher(o, NewDeliverer(sender, nil, nil, zap.NewNop()), zap.NewNop(), DispatcherConfig{MaxRetries: 3, Workers: 2})

	require.NoError(t, o.Enqueue(EmailJob(mailer.Message{To: []string{"a@example.com"}, Subject: "s"})))

	require.NoError(t, d.Drain(context.Background()))
	assert.Empty(t, sender.sent)
	jobs, err := o.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, 1, jobs[0].Retries)

	require.NoError(t, d.Drain(context.Background()))
	assert.Len(t, sender.sent, 1)
	size, err := o.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestDispatcher_DropsAfterMaxRetries(t *testing.T) {
	o := openOutbox(t)
	sender := &recordingSender{failures: 10}
	d := NewDispatcher(o, NewDeliverer(sender, nil, nil, zap.NewNop()), zap.NewNop(), DispatcherConfig{MaxRetries: 2})

	require.NoError(t, o.Enqueue(EmailJob(mailer.Message{To: []string{"a@example.com"}})))
	require.NoError(t, d.Drain(context.Background()))
	require.NoError(t, d.Drain(context.Background()))

	size, err := o.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
	assert.Empty(t, sender.sent)
}

func TestDeliverer_PushPrunesRejectedTokens(t *testing.T) {
	tokens := &fakeTokens{tokens: map[string][]string{"u1": {"good", "stale"}}}
	push := &fakePush{reject: []string{"stale"}}
	d := NewDeliverer(&recordingSender{}, push, tokens, zap.NewNop())

	require.NoError(t, d.Deliver(context.Background(), PushJob("u1", fcm.Notification{Title: "t"})))
	require.Len(t, push.sent, 1)
	assert.Equal(t, []string{"good", "stale"}, push.sent[0])
	assert.Equal(t, []string{"stale"}, tokens.deleted)

	require.NoError(t, d.Deliver(context.Background(), PushJob("nobody", fcm.Notification{})))
	assert.Len(t, push.sent, 1)
}

func TestOutboxNotifier_Enqueues(t *testing.T) {
	o := openOutbox(t)
	n := NewOutboxNotifier(o, zap.NewNop())

	n.Email(context.Background(), mailer.Message{To: []string{"a@example.com"}})
	n.Push(context.Background(), "u1", fcm.Notification{Title: "x"})

	size, err := o.Size()
	require.NoError(t, err)
	assert.Equal(t, 2, size)
}

func TestDirectNotifier_SwallowsErrors(t *testing.T) {
	sender := &recordingSender{failures: 1}
	n := NewDirectNotifier(NewDeliverer(sender, nil, nil, zap.NewNop()), zap.NewNop())

	n.Email(context.Background(), mailer.Message{To: []string{"a@example.com"}})
	n.Email(context.Background(), mailer.Message{To: []string{"b@example.com"}})
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"b@example.com"}, sender.sent[0].To)
}

func TestPubSubPublisher(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	client, err := pubsub.NewClient(ctx, "ticktask-test", option.WithGRPCConn(conn))
	require.NoError(t, err)

	_, err = NewPubSubPublisherWithClient(ctx, client, "activities", zap.NewNop())
	assert.Error(t, err)

	_, err = client.CreateTopic(ctx, "activities")
	require.NoError(t, err)
	p, err := NewPubSubPublisherWithClient(ctx, client, "activities", zap.NewNop())
	require.NoError(t, err)
	defer p.Close()

	source := "u2"
	p.Publish(ctx, ActivityEvent{ID: "a1", UserID: "u1", SourceUserID: &source, Action: "Created task: X"})

	require.Eventually(t, func() bool { return len(srv.Messages()) == 1 }, 5*time.Second, 10*time.Millisecond)
	msg := srv.Messages()[0]
	assert.Equal(t, "u1", msg.Attributes["user_id"])

	var got ActivityEvent
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, "Created task: X", got.Action)
	require.NotNil(t, got.SourceUserID)
	assert.Equal(t, "u2", *got.SourceUserID)
}
