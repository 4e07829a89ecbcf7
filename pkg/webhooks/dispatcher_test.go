package webhooks_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finbase/notifier/pkg/events"
	"github.com/finbase/notifier/pkg/webhooks"
)

func testEvent() events.Event {
	return events.Event{
		Type:           events.NotificationSent,
		NotificationID: "9f2c7a44-1d4e-4a7b-9a60-2f8f3f1f9d11",
		Status:         "sent",
		Timestamp:      time.Now(),
	}
}

func subscribe(t *testing.T, registry webhooks.Registry, url, secret string, evts ...events.LifecycleEvent) *webhooks.Config {
	t.Helper()

	cfg := &webhooks.Config{
		Name:          "test endpoint",
		URL:           url,
		Secret:        secret,
		Events:        evts,
		Timeout:       2 * time.Second,
		RetryAttempts: 1,
		Active:        true,
	}
	require.NoError(t, registry.Create(context.Background(), cfg))
	return cfg
}

func TestDispatcherDeliversSignedEvent(t *testing.T) {
	t.Parallel()

	type received struct {
		body    []byte
		headers http.Header
	}
	got := make(chan received, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- received{body: body, headers: r.Header.Clone()}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	registry := webhooks.NewMemoryRegistry()
	cfg := subscribe(t, registry, srv.URL, "whsec_test")

	dispatcher, err := webhooks.NewDispatcher(registry)
	require.NoError(t, err)

	event := testEvent()
	dispatcher.Publish(context.Background(), event)
	require.NoError(t, dispatcher.Close())

	select {
	case rec := <-got:
		var decoded events.Event
		require.NoError(t, json.Unmarshal(rec.body, &decoded))
		assert.Equal(t, events.NotificationSent, decoded.Type)
		assert.Equal(t, event.NotificationID, decoded.NotificationID)
		assert.Equal(t, "application/json", rec.headers.Get("Content-Type"))

		sig, err := webhooks.ExtractSignatureHeaders(rec.headers)
		require.NoError(t, err)
		require.NoError(t, webhooks.Verify("whsec_test", rec.body, sig, time.Minute))
	case <-time.After(3 * time.Second):
		t.Fatal("endpoint never received the event")
	}

	updated, err := registry.Get(context.Background(), cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.SuccessCount)
	assert.Zero(t, updated.FailureCount)
	assert.True(t, updated.Healthy())
	require.NotNil(t, updated.LastTriggeredAt)
}

func TestDispatcherEventFiltering(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	registry := webhooks.NewMemoryRegistry()
	subscribe(t, registry, srv.URL, "", events.NotificationBounced)

	inactive := subscribe(t, registry, srv.URL, "")
	inactive.Active = false
	require.NoError(t, registry.Update(context.Background(), inactive))

	dispatcher, err := webhooks.NewDispatcher(registry)
	require.NoError(t, err)

	dispatcher.Publish(context.Background(), testEvent())
	require.NoError(t, dispatcher.Close())

	assert.Zero(t, hits.Load(), "unsubscribed and inactive endpoints receive nothing")
}

func TestDispatcherRecordsFailures(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone fishing", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	registry := webhooks.NewMemoryRegistry()
	cfg := subscribe(t, registry, srv.URL, "")

	dispatcher, err := webhooks.NewDispatcher(registry)
	require.NoError(t, err)

	dispatcher.Publish(context.Background(), testEvent())
	require.NoError(t, dispatcher.Close())

	updated, err := registry.Get(context.Background(), cfg.ID)
	require.NoError(t, err)
	assert.Zero(t, updated.SuccessCount)
	assert.Equal(t, 1, updated.FailureCount)
	assert.False(t, updated.Healthy())
	assert.Contains(t, updated.LastError, "404")
}

func TestDispatcherNeverBlocksPublisher(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	registry := webhooks.NewMemoryRegistry()
	subscribe(t, registry, srv.URL, "")

	dispatcher, err := webhooks.NewDispatcher(registry)
	require.NoError(t, err)

	start := time.Now()
	dispatcher.Publish(context.Background(), testEvent())
	assert.Less(t, time.Since(start), 500*time.Millisecond,
		"publish must return without waiting for the endpoint")
}

func TestSenderRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	sender := webhooks.NewSender(webhooks.WithBackoff(webhooks.FixedBackoff{Interval: 10 * time.Millisecond}))
	cfg := webhooks.Config{URL: srv.URL, Timeout: time.Second, RetryAttempts: 3, RetryDelay: 10 * time.Millisecond}

	require.NoError(t, sender.Deliver(context.Background(), cfg, []byte(`{}`)))
	assert.Equal(t, int32(2), hits.Load())
}

func TestSenderStopsOnPermanentFailure(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	sender := webhooks.NewSender()
	cfg := webhooks.Config{URL: srv.URL, Timeout: time.Second, RetryAttempts: 5, RetryDelay: time.Millisecond}

	err := sender.Deliver(context.Background(), cfg, []byte(`{}`))
	assert.ErrorIs(t, err, webhooks.ErrPermanentFailure)
	assert.Equal(t, int32(1), hits.Load(), "4xx responses are not retried")
}
