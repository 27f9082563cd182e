package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"chat-sentiment/backend/conversation/models"
	"chat-sentiment/backend/pkg/logger"
	"chat-sentiment/backend/sentiment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	mu       sync.Mutex
	messages []models.Message
	down     bool
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.down {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(f.messages)
	case http.MethodPost:
		var body struct {
			AuthorID string `json:"authorId"`
			Text     string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Text == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":"VALIDATION_ERROR","message":"text must not be empty"}}`))
			return
		}
		msg := models.Message{
			ID:             uint64(len(f.messages) + 1),
			AuthorID:       body.AuthorID,
			Text:           body.Text,
			SentimentLabel: sentiment.Neutral,
			CreatedAt:      time.Now().UTC(),
		}
		f.messages = append(f.messages, msg)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(msg)
	}
}

func (f *fakeServer) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

func TestClientRoundTrip(t *testing.T) {
	srv := httptest.NewServer(&fakeServer{})
	defer srv.Close()

	c, err := New(srv.URL+"/", nil)
	require.NoError(t, err)

	msg, err := c.PostMessage(context.Background(), "u1", "hello")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), msg.ID)

	_, err = c.PostMessage(context.Background(), "u1", "")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)

	messages, err := c.ListMessages(context.Background())
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "hello", messages[0].Text)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("localhost", nil)
	assert.Error(t, err)
}

func TestPollerReportsOnlyNewMessages(t *testing.T) {
	fake := &fakeServer{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c, err := New(srv.URL, nil)
	require.NoError(t, err)

	var delivered []uint64
	p := NewPoller(c, logger.NewNop(), OnNew(func(msgs []models.Message) {
		for _, m := range msgs {
			delivered = append(delivered, m.ID)
		}
	}))
	assert.Equal(t, StateUnknown, p.Status().State())

	fresh, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fresh)
	assert.Equal(t, StateConnected, p.Status().State())

	_, err = c.PostMessage(context.Background(), "u1", "one")
	require.NoError(t, err)
	_, err = c.PostMessage(context.Background(), "u2", "two")
	require.NoError(t, err)

	fresh, err = p.Poll(context.Background())
	require.NoError(t, err)
	assert.Len(t, fresh, 2)

	fresh, err = p.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fresh)

	assert.Equal(t, []uint64{1, 2}, delivered)
	assert.Equal(t, 2, p.Seen())
}

func TestStatusTransitions(t *testing.T) {
	fake := &fakeServer{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c, err := New(srv.URL, nil)
	require.NoError(t, err)

	var transitions []ConnectionState
	tracker := NewStatusTracker(logger.NewNop())
	tracker.OnChange(func(_, to ConnectionState) { transitions = append(transitions, to) })
	p := NewPoller(c, logger.NewNop(), WithStatusTracker(tracker))

	_, err = p.Poll(context.Background())
	require.NoError(t, err)

	fake.setDown(true)
	_, err = p.Poll(context.Background())
	require.Error(t, err)
	_, _ = p.Poll(context.Background())

	fake.setDown(false)
	_, err = p.Poll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []ConnectionState{StateConnected, StateDisconnected, StateConnected}, transitions)

	snap := tracker.Snapshot()
	assert.Equal(t, uint64(2), snap.Successes)
	assert.Equal(t, uint64(2), snap.Failures)
	assert.Equal(t, uint64(3), snap.Transitions)
	assert.Empty(t, snap.LastError)
}

func TestCancelledPollKeepsStatus(t *testing.T) {
	srv := httptest.NewServer(&fakeServer{})
	defer srv.Close()

	c, err := New(srv.URL, nil)
	require.NoError(t, err)
	p := NewPoller(c, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Poll(ctx)
	require.Error(t, err)
	assert.Equal(t, StateUnknown, p.Status().State())
}

func TestRunStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(&fakeServer{})
	defer srv.Close()

	c, err := New(srv.URL, nil)
	require.NoError(t, err)
	p := NewPoller(c, logger.NewNop(), WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool {
		return p.Status().State() == StateConnected
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}
