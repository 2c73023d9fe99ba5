package notification

import (
	"context"

	"ticktask-backend/pkg/fcm"
	"ticktask-backend/pkg/logger"
	"ticktask-backend/pkg/mailer"
	"ticktask-backend/pkg/metrics"

	"go.uber.org/zap"
)

// Notifier hands notifications off for delivery. Failures are logged and
// never reported to the caller.
type Notifier interface {
	Email(ctx context.Context, msg mailer.Message)
	Push(ctx context.Context, userID string, n fcm.Notification)
}

type outboxNotifier struct {
	outbox *Outbox
	logger *zap.Logger
}

// NewOutboxNotifier queues notifications in the outbox for the dispatcher.
func NewOutboxNotifier(outbox *Outbox, logger *zap.Logger) Notifier {
	return &outboxNotifier{outbox: outbox, logger: logger.Named("outbox")}
}

func (n *outboxNotifier) Email(ctx context.Context, msg mailer.Message) {
	n.enqueue(ctx, EmailJob(msg))
}

func (n *outboxNotifier) Push(ctx context.Context, userID string, p fcm.Notification) {
	n.enqueue(ctx, PushJob(userID, p))
}

func (n *outboxNotifier) enqueue(ctx context.Context, job Job) {
	if err := n.outbox.Enqueue(job); err != nil {
		logger.FromContext(ctx, n.logger).Error("failed to enqueue notification",
			zap.String("kind", string(job.Kind)), zap.Error(err))
		return
	}
	metrics.NotificationsQueued.WithLabelValues(string(job.Kind)).Inc()
}

type directNotifier struct {
	deliverer *Deliverer
	logger    *zap.Logger
}

// NewDirectNotifier delivers each notification synchronously. Used by
// one-shot commands that exit before a dispatcher would run.
func NewDirectNotifier(deliverer *Deliverer, logger *zap.Logger) Notifier {
	return &directNotifier{deliverer: deliverer, logger: logger.Named("direct")}
}

func (n *directNotifier) Email(ctx context.Context, msg mailer.Message) {
	if err := n.deliverer.Deliver(ctx, EmailJob(msg)); err != nil {
		logger.FromContext(ctx, n.logger).Error("email delivery failed", zap.Strings("to", msg.To), zap.Error(err))
	}
}

func (n *directNotifier) Push(ctx context.Context, userID string, p fcm.Notification) {
	if err := n.deliverer.Deliver(ctx, PushJob(userID, p)); err != nil {
		logger.FromContext(ctx, n.logger).Error("push delivery failed", zap.String("user_id", userID), zap.Error(err))
	}
}
