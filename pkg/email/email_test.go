package email_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finbase/notifier/pkg/delivery"
	"github.com/finbase/notifier/pkg/email"
	"github.com/finbase/notifier/pkg/events"
	"github.com/finbase/notifier/pkg/templates"
)

func TestSendEmailParamsValidate(t *testing.T) {
	t.Parallel()

	valid := email.SendEmailParams{
		SendTo:   "user@example.com",
		Subject:  "Low balance",
		BodyText: "Your balance dropped below the threshold",
	}
	assert.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*email.SendEmailParams)
	}{
		{"missing recipient", func(p *email.SendEmailParams) { p.SendTo = "" }},
		{"malformed recipient", func(p *email.SendEmailParams) { p.SendTo = "not-an-email" }},
		{"missing subject", func(p *email.SendEmailParams) { p.Subject = "" }},
		{"missing body", func(p *email.SendEmailParams) { p.BodyText = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := valid
			tc.mutate(&p)
			assert.ErrorIs(t, p.Validate(), email.ErrInvalidParams)
		})
	}

	t.Run("html body alone suffices", func(t *testing.T) {
		t.Parallel()

		p := valid
		p.BodyText = ""
		p.BodyHTML = "<p>hi</p>"
		assert.NoError(t, p.Validate())
	})
}

func TestPostmarkMailerConfig(t *testing.T) {
	t.Parallel()

	valid := email.Config{
		PostmarkServerToken:  "server",
		PostmarkAccountToken: "account",
		SenderEmail:          "noreply@example.com",
		SupportEmail:         "support@example.com",
	}

	_, err := email.NewPostmarkMailer(valid)
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(*email.Config)
	}{
		{"missing server token", func(c *email.Config) { c.PostmarkServerToken = "" }},
		{"missing account token", func(c *email.Config) { c.PostmarkAccountToken = "" }},
		{"missing sender", func(c *email.Config) { c.SenderEmail = "" }},
		{"malformed sender", func(c *email.Config) { c.SenderEmail = "nope" }},
		{"missing support", func(c *email.Config) { c.SupportEmail = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid
			tc.mutate(&cfg)
			_, err := email.NewPostmarkMailer(cfg)
			assert.ErrorIs(t, err, email.ErrInvalidConfig)
		})
	}
}

func TestDevMailerWritesFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mailer := email.NewDevMailer(dir)

	require.NoError(t, mailer.SendEmail(context.Background(), email.SendEmailParams{
		SendTo:   "user@example.com",
		Subject:  "Deposit received",
		BodyHTML: "<p>Funds are available</p>",
		Tag:      "deposit_received",
	}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var htmlPath string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".html") {
			htmlPath = filepath.Join(dir, e.Name())
		}
		assert.Contains(t, e.Name(), "deposit_received")
	}
	require.NotEmpty(t, htmlPath)

	body, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Equal(t, "<p>Funds are available</p>", string(body))
}

// stubMailer scripts the underlying provider for the sender adapter.
type stubMailer struct {
	err  error
	last email.SendEmailParams
}

func (s *stubMailer) SendEmail(_ context.Context, params email.SendEmailParams) error {
	s.last = params
	return s.err
}

func TestSenderAdapter(t *testing.T) {
	t.Parallel()

	t.Run("requires a mailer", func(t *testing.T) {
		t.Parallel()

		_, err := email.NewSender(nil)
		assert.ErrorIs(t, err, email.ErrInvalidConfig)
	})

	t.Run("maps the message onto provider params", func(t *testing.T) {
		t.Parallel()

		stub := &stubMailer{}
		sender, err := email.NewSender(stub)
		require.NoError(t, err)
		assert.Equal(t, events.ChannelEmail, sender.Channel())

		resp, err := sender.Send(context.Background(), delivery.Message{
			UserID:      "user-1",
			Type:        events.TypeDepositReceived,
			Channel:     events.ChannelEmail,
			Destination: "user@example.com",
			Content: templates.Rendered{
				Subject:  "Deposit received",
				Body:     "Funds are available",
				HTMLBody: "<p>Funds are available</p>",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "accepted", resp)
		assert.Equal(t, "user@example.com", stub.last.SendTo)
		assert.Equal(t, "deposit_received", stub.last.Tag)
		assert.Equal(t, "<p>Funds are available</p>", stub.last.BodyHTML)
	})

	t.Run("inactive recipients bounce permanently", func(t *testing.T) {
		t.Parallel()

		stub := &stubMailer{err: email.ErrRecipientInactive}
		sender, err := email.NewSender(stub)
		require.NoError(t, err)

		_, err = sender.Send(context.Background(), delivery.Message{
			Destination: "gone@example.com",
			Content:     templates.Rendered{Subject: "s", Body: "b"},
		})
		assert.ErrorIs(t, err, delivery.ErrBounced)
		assert.True(t, delivery.Permanent(err))
	})

	t.Run("provider outages stay transient", func(t *testing.T) {
		t.Parallel()

		stub := &stubMailer{err: errors.New("connection refused")}
		sender, err := email.NewSender(stub)
		require.NoError(t, err)

		_, err = sender.Send(context.Background(), delivery.Message{
			Destination: "user@example.com",
			Content:     templates.Rendered{Subject: "s", Body: "b"},
		})
		require.Error(t, err)
		assert.False(t, delivery.Permanent(err))
	})
}
