package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

// Postmark API error codes that identify dead recipients. 300 is an invalid
// email address, 406 an inactive recipient suppressed after a hard bounce
// or spam complaint.
const (
	postmarkErrInvalidEmail      = 300
	postmarkErrInactiveRecipient = 406
)

// ErrRecipientInactive marks recipients the provider refuses to deliver to.
// Callers treat it as permanent: retrying the address cannot succeed.
var ErrRecipientInactive = errors.New("email.errors.recipient_inactive")

type postmarkMailer struct {
	client *postmark.Client
	config Config
}

// NewPostmarkMailer creates a Postmark-backed mailer. All fields are
// validated up front so a misconfigured service fails at startup, not on
// the first notification.
func NewPostmarkMailer(cfg Config) (Mailer, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: PostmarkAccountToken is required", ErrInvalidConfig)
	}
	if cfg.SenderEmail == "" || !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}
	if cfg.SupportEmail == "" || !emailRegex.MatchString(cfg.SupportEmail) {
		return nil, fmt.Errorf("%w: SupportEmail must be a valid email address", ErrInvalidConfig)
	}

	return &postmarkMailer{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		config: cfg,
	}, nil
}

// SendEmail implements Mailer over Postmark's transactional API. Open
// tracking and HTML link tracking are enabled; Reply-To points at support
// so recipient replies reach a monitored inbox.
func (m *postmarkMailer) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	resp, err := m.client.SendEmail(ctx, postmark.Email{
		From:       m.config.SenderEmail,
		ReplyTo:    m.config.SupportEmail,
		To:         params.SendTo,
		Subject:    params.Subject,
		Tag:        params.Tag,
		TextBody:   params.BodyText,
		HTMLBody:   params.BodyHTML,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	})
	if err != nil {
		return errors.Join(ErrFailedToSend, err)
	}
	if resp.ErrorCode > 0 {
		providerErr := fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message)
		switch resp.ErrorCode {
		case postmarkErrInvalidEmail, postmarkErrInactiveRecipient:
			return errors.Join(ErrRecipientInactive, providerErr)
		}
		return errors.Join(ErrFailedToSend, providerErr)
	}
	return nil
}
