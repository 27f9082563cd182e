package sentiment

import (
	"context"
	"testing"

	"chat-sentiment/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
)

type stubRemote struct {
	label Label
	ok    bool
	calls int
	texts []string
}

func (s *stubRemote) TryClassify(_ context.Context, text string) (Label, bool) {
	s.calls++
	s.texts = append(s.texts, text)
	return s.label, s.ok
}

func TestPipelineWithoutRemoteUsesRules(t *testing.T) {
	p := NewPipeline(newDefaultRules(t), nil, logger.NewNop())

	assert.Equal(t, Positive, p.Classify(context.Background(), "This is great!"))
	assert.Equal(t, Neutral, p.Classify(context.Background(), "xyz"))
}

func TestPipelinePrefersRemoteResult(t *testing.T) {
	remote := &stubRemote{label: Negative, ok: true}
	p := NewPipeline(newDefaultRules(t), remote, logger.NewNop())

	// The rules would say positive; the remote answer wins.
	assert.Equal(t, Negative, p.Classify(context.Background(), "This is great!"))
	assert.Equal(t, 1, remote.calls)
	assert.Equal(t, []string{"This is great!"}, remote.texts)
}

func TestPipelineFallsBackSilently(t *testing.T) {
	remote := &stubRemote{ok: false}
	p := NewPipeline(newDefaultRules(t), remote, logger.NewNop())

	assert.Equal(t, Positive, p.Classify(context.Background(), "awesome"))
	assert.Equal(t, Negative, p.Classify(context.Background(), "awful"))
	assert.Equal(t, 2, remote.calls)
}

func TestPipelineIsTotal(t *testing.T) {
	p := NewPipeline(newDefaultRules(t), &stubRemote{ok: false}, logger.NewNop())
	for _, text := range []string{"", " ", "xyz", "good bad", "🙂"} {
		assert.True(t, p.Classify(context.Background(), text).Valid(), text)
	}
}
