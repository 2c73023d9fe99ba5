package mailer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"
)

// Message is a plain-text e-mail.
type Message struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// Sender delivers e-mail.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// BuildMIME renders msg as an RFC 5322 message from the given address.
func BuildMIME(from string, msg Message) ([]byte, error) {
	if len(msg.To) == 0 {
		return nil, fmt.Errorf("message has no recipients")
	}

	to := make([]*mail.Address, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, &mail.Address{Address: addr})
	}

	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Name: "TickTask", Address: from}})
	h.SetAddressList("To", to)
	h.SetSubject(msg.Subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create mail writer: %w", err)
	}
	if _, err := io.WriteString(w, msg.Body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LogSender writes messages to the log instead of sending them.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("mail not sent (no transport configured)",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}
