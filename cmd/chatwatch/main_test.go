package main

import (
	"bytes"
	"testing"
	"time"

	"chat-sentiment/backend/client"
	"chat-sentiment/backend/conversation/models"
	"chat-sentiment/backend/sentiment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMessagesPlain(t *testing.T) {
	var buf bytes.Buffer
	renderMessages(&buf, []models.Message{
		{ID: 7, AuthorID: "ayse", Text: "harika", SentimentLabel: sentiment.Positive, CreatedAt: time.Now()},
		{ID: 8, AuthorID: "can", Text: "berbat", SentimentLabel: sentiment.Negative, CreatedAt: time.Now()},
	}, false)

	out := buf.String()
	assert.Contains(t, out, "ayse")
	assert.Contains(t, out, "positive")
	assert.Contains(t, out, "negative")
	assert.Contains(t, out, "berbat")
}

func TestStatusLinePlain(t *testing.T) {
	assert.Equal(t, "  ====== disconnected ======", statusLine(client.StateDisconnected, false))
	assert.Equal(t, "neutral", labelText(sentiment.Neutral, false))
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("CHATWATCH_SERVER_URL", "http://chat.internal:9000")
	t.Setenv("CHATWATCH_POLL_INTERVAL", "3s")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://chat.internal:9000", cfg.ServerURL)
	assert.Equal(t, 3*time.Second, cfg.Interval)
	assert.True(t, cfg.Colours)
}
