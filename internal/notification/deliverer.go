package notification

import (
	"context"
	"errors"
	"fmt"

	authrepo "ticktask-backend/internal/auth/repository"
	"ticktask-backend/pkg/fcm"
	"ticktask-backend/pkg/mailer"
	"ticktask-backend/pkg/metrics"

	"go.uber.org/zap"
)

// PushClient sends push notifications to device tokens and reports the
// rejected ones.
type PushClient interface {
	SendToDevices(ctx context.Context, tokens []string, n fcm.Notification) ([]string, error)
}

// Deliverer performs the actual send of a job
type Deliverer struct {
	mail   mailer.Sender
	push   PushClient
	tokens authrepo.FCMTokenRepository
	logger *zap.Logger
}

// NewDeliverer creates a Deliverer. A nil push client turns push jobs into no-ops.
func NewDeliverer(mail mailer.Sender, push PushClient, tokens authrepo.FCMTokenRepository, logger *zap.Logger) *Deliverer {
	return &Deliverer{
		mail:   mail,
		push:   push,
		tokens: tokens,
		logger: logger.Named("deliverer"),
	}
}

func (d *Deliverer) Deliver(ctx context.Context, job Job) (err error) {
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.NotificationsDelivered.WithLabelValues(string(job.Kind), result).Inc()
	}()

	switch job.Kind {
	case KindEmail:
		if job.Email == nil {
			return errors.New("email job without message")
		}
		return d.mail.Send(ctx, *job.Email)
	case KindPush:
		if job.Push == nil {
			return errors.New("push job without payload")
		}
		return d.deliverPush(ctx, job.Push)
	default:
		return fmt.Errorf("unsupported job kind %q", job.Kind)
	}
}

func (d *Deliverer) deliverPush(ctx context.Context, p *Push) error {
	if d.push == nil || d.tokens == nil {
		return nil
	}

	tokens, err := d.tokens.GetTokensByUserID(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("load device tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	values := make([]string, 0, len(tokens))
	for _, t := range tokens {
		values = append(values, t.Token)
	}

	failed, err := d.push.SendToDevices(ctx, values, p.Notification)
	if err != nil {
		return err
	}
	for _, token := range failed {
		if err := d.tokens.DeleteToken(ctx, token); err != nil {
			d.logger.Warn("failed to prune device token", zap.Error(err))
		}
	}
	if len(failed) > 0 {
		d.logger.Info("pruned rejected device tokens",
			zap.String("user_id", p.UserID),
			zap.Int("count", len(failed)))
	}
	return nil
}
