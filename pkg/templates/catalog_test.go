package templates_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finbase/notifier/pkg/templates"
)

func TestCatalog(t *testing.T) {
	t.Parallel()

	t.Run("resolve by key and language", func(t *testing.T) {
		t.Parallel()

		c := templates.NewCatalog()
		require.NoError(t, c.Add(templates.Template{
			Key: "welcome", Body: "Welcome!", Language: "en", Version: 1, Active: true,
		}))
		require.NoError(t, c.Add(templates.Template{
			Key: "welcome", Body: "Willkommen!", Language: "de", Version: 1, Active: true,
		}))

		got, err := c.Resolve("welcome", "de")
		require.NoError(t, err)
		assert.Equal(t, "Willkommen!", got.Body)
	})

	t.Run("falls back to default language", func(t *testing.T) {
		t.Parallel()

		c := templates.NewCatalog()
		require.NoError(t, c.Add(templates.Template{
			Key: "welcome", Body: "Welcome!", Language: "en", Version: 1, Active: true,
		}))

		got, err := c.Resolve("welcome", "pt-BR")
		require.NoError(t, err)
		assert.Equal(t, "Welcome!", got.Body)
	})

	t.Run("regional variant matches base language", func(t *testing.T) {
		t.Parallel()

		c := templates.NewCatalog()
		require.NoError(t, c.Add(templates.Template{
			Key: "welcome", Body: "Welcome!", Language: "en", Version: 1, Active: true,
		}))
		require.NoError(t, c.Add(templates.Template{
			Key: "welcome", Body: "Bienvenue!", Language: "fr", Version: 1, Active: true,
		}))

		got, err := c.Resolve("welcome", "fr-CA")
		require.NoError(t, err)
		assert.Equal(t, "Bienvenue!", got.Body)
	})

	t.Run("keeps highest active version", func(t *testing.T) {
		t.Parallel()

		c := templates.NewCatalog()
		require.NoError(t, c.Add(templates.Template{
			Key: "otp", Body: "v1 {{code}}", Language: "en", Version: 1, Active: true,
		}))
		require.NoError(t, c.Add(templates.Template{
			Key: "otp", Body: "v3 {{code}}", Language: "en", Version: 3, Active: true,
		}))
		require.NoError(t, c.Add(templates.Template{
			Key: "otp", Body: "v2 {{code}}", Language: "en", Version: 2, Active: true,
		}))

		got, err := c.Resolve("otp", "en")
		require.NoError(t, err)
		assert.Equal(t, 3, got.Version)
	})

	t.Run("inactive templates are ignored", func(t *testing.T) {
		t.Parallel()

		c := templates.NewCatalog()
		require.NoError(t, c.Add(templates.Template{
			Key: "retired", Body: "gone", Language: "en", Version: 1, Active: false,
		}))

		_, err := c.Resolve("retired", "en")
		assert.ErrorIs(t, err, templates.ErrTemplateNotFound)
	})

	t.Run("unknown key", func(t *testing.T) {
		t.Parallel()

		c := templates.NewCatalog()
		_, err := c.Resolve("nope", "en")
		assert.ErrorIs(t, err, templates.ErrTemplateNotFound)
	})

	t.Run("rejects invalid definitions", func(t *testing.T) {
		t.Parallel()

		c := templates.NewCatalog()
		assert.ErrorIs(t, c.Add(templates.Template{Body: "no key", Active: true}), templates.ErrInvalidTemplate)
		assert.ErrorIs(t, c.Add(templates.Template{Key: "no-body", Active: true}), templates.ErrInvalidTemplate)
		assert.ErrorIs(t, c.Add(templates.Template{
			Key: "bad-lang", Body: "x", Language: "not a tag!", Active: true,
		}), templates.ErrInvalidLanguage)
	})
}

func TestCatalogLoadYAML(t *testing.T) {
	t.Parallel()

	t.Run("loads template set", func(t *testing.T) {
		t.Parallel()

		data := []byte(`
templates:
  - key: deposit_received
    channel: email
    category: transaction
    subject: "Deposit of {{amount}} received"
    body: "Hi {{firstName}}, your deposit of {{amount}} has arrived."
    language: en
    version: 1
    active: true
  - key: deposit_received
    channel: sms
    category: transaction
    body: "{{amount}} deposited to your account."
    language: en
    version: 1
    active: true
`)
		c := templates.NewCatalog()
		require.NoError(t, c.LoadYAML(data))

		rendered, err := c.Render("deposit_received", "en", map[string]any{
			"firstName": "Ada",
			"amount":    "$100",
		})
		require.NoError(t, err)
		assert.Contains(t, rendered.Body, "Ada")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()

		c := templates.NewCatalog()
		assert.ErrorIs(t, c.LoadYAML([]byte("templates: {")), templates.ErrInvalidTemplate)
	})
}
