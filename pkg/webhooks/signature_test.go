package webhooks_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finbase/notifier/pkg/webhooks"
)

func TestSignAndVerify(t *testing.T) {
	t.Parallel()

	secret := "whsec_test"
	payload := []byte(`{"eventType":"notification.sent"}`)

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		sig, err := webhooks.Sign(secret, payload)
		require.NoError(t, err)
		assert.NotEmpty(t, sig.Signature)
		assert.NotEmpty(t, sig.ID)
		assert.NotZero(t, sig.Timestamp)

		require.NoError(t, webhooks.Verify(secret, payload, sig, 5*time.Minute))
	})

	t.Run("wrong secret fails", func(t *testing.T) {
		t.Parallel()

		sig, err := webhooks.Sign(secret, payload)
		require.NoError(t, err)
		assert.ErrorIs(t, webhooks.Verify("other", payload, sig, 0), webhooks.ErrInvalidSignature)
	})

	t.Run("tampered payload fails", func(t *testing.T) {
		t.Parallel()

		sig, err := webhooks.Sign(secret, payload)
		require.NoError(t, err)
		assert.ErrorIs(t, webhooks.Verify(secret, []byte(`{"eventType":"forged"}`), sig, 0),
			webhooks.ErrInvalidSignature)
	})

	t.Run("stale timestamp fails", func(t *testing.T) {
		t.Parallel()

		sig, err := webhooks.Sign(secret, payload)
		require.NoError(t, err)
		sig.Timestamp = time.Now().Add(-time.Hour).Unix()
		assert.ErrorIs(t, webhooks.Verify(secret, payload, sig, 5*time.Minute),
			webhooks.ErrInvalidSignature)
	})

	t.Run("empty inputs are rejected", func(t *testing.T) {
		t.Parallel()

		_, err := webhooks.Sign("", payload)
		assert.ErrorIs(t, err, webhooks.ErrInvalidConfig)

		_, err = webhooks.Sign(secret, nil)
		assert.ErrorIs(t, err, webhooks.ErrInvalidPayload)
	})
}

func TestExtractSignatureHeaders(t *testing.T) {
	t.Parallel()

	t.Run("extracts applied headers", func(t *testing.T) {
		t.Parallel()

		sig, err := webhooks.Sign("whsec_test", []byte(`{}`))
		require.NoError(t, err)

		h := http.Header{}
		sig.Apply(h)

		got, err := webhooks.ExtractSignatureHeaders(h)
		require.NoError(t, err)
		assert.Equal(t, sig, got)
	})

	t.Run("missing headers fail", func(t *testing.T) {
		t.Parallel()

		_, err := webhooks.ExtractSignatureHeaders(http.Header{})
		assert.ErrorIs(t, err, webhooks.ErrInvalidSignature)
	})

	t.Run("malformed timestamp fails", func(t *testing.T) {
		t.Parallel()

		h := http.Header{}
		h.Set(webhooks.HeaderSignature, "abc")
		h.Set(webhooks.HeaderTimestamp, "yesterday")
		_, err := webhooks.ExtractSignatureHeaders(h)
		assert.ErrorIs(t, err, webhooks.ErrInvalidSignature)
	})
}
