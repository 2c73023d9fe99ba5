package mailer

import (
	"context"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailSender sends mail through the Gmail API on behalf of a single
// mailbox authorised with a long-lived refresh token.
type GmailSender struct {
	from        string
	tokenSource oauth2.TokenSource
}

func NewGmailSender(clientID, clientSecret, refreshToken, from string) *GmailSender {
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}
	return &GmailSender{
		from:        from,
		tokenSource: cfg.TokenSource(context.Background(), &oauth2.Token{RefreshToken: refreshToken}),
	}
}

func (s *GmailSender) Send(ctx context.Context, msg Message) error {
	raw, err := BuildMIME(s.from, msg)
	if err != nil {
		return err
	}

	srv, err := gmail.NewService(ctx, option.WithTokenSource(s.tokenSource))
	if err != nil {
		return fmt.Errorf("unable to create Gmail service: %w", err)
	}

	_, err = srv.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to send message: %w", err)
	}
	return nil
}
