package client

import (
	"context"
	"sync"
	"time"

	"chat-sentiment/backend/conversation/models"
	"chat-sentiment/backend/pkg/logger"
)

// DefaultInterval is how often the poller re-fetches the snapshot.
const DefaultInterval = 2 * time.Second

// MessageLister is the read side the poller needs.
type MessageLister interface {
	ListMessages(ctx context.Context) ([]models.Message, error)
}

// Poller re-fetches the full snapshot on a fixed interval and reports
// messages whose ids it has not seen before.
type Poller struct {
	lister   MessageLister
	interval time.Duration
	status   *StatusTracker
	log      *logger.Logger
	onNew    func([]models.Message)

	mu   sync.Mutex
	seen map[uint64]struct{}
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithStatusTracker records each poll's outcome on t.
func WithStatusTracker(t *StatusTracker) PollerOption {
	return func(p *Poller) { p.status = t }
}

// OnNew sets the callback that receives newly seen messages in id order.
func OnNew(fn func([]models.Message)) PollerOption {
	return func(p *Poller) { p.onNew = fn }
}

func NewPoller(lister MessageLister, log *logger.Logger, opts ...PollerOption) *Poller {
	if log == nil {
		log = logger.GetGlobal()
	}
	p := &Poller{
		lister:   lister,
		interval: DefaultInterval,
		log:      log.WithComponent("poller"),
		seen:     make(map[uint64]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.status == nil {
		p.status = NewStatusTracker(log)
	}
	return p
}

func (p *Poller) Status() *StatusTracker {
	return p.status
}

// Poll fetches one snapshot and returns the messages not seen before.
func (p *Poller) Poll(ctx context.Context) ([]models.Message, error) {
	snapshot, err := p.lister.ListMessages(ctx)
	if err != nil {
		// A poll abandoned by the caller says nothing about the server.
		if ctx.Err() == nil {
			p.status.Record(err)
		}
		return nil, err
	}
	p.status.Record(nil)

	p.mu.Lock()
	fresh := make([]models.Message, 0)
	for _, msg := range snapshot {
		if _, ok := p.seen[msg.ID]; ok {
			continue
		}
		p.seen[msg.ID] = struct{}{}
		fresh = append(fresh, msg)
	}
	p.mu.Unlock()

	if len(fresh) > 0 && p.onNew != nil {
		p.onNew(fresh)
	}
	return fresh, nil
}

// Run polls immediately and then every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if _, err := p.Poll(ctx); err != nil && ctx.Err() == nil {
			p.log.Debug("Poll failed", "error", err.Error())
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Seen reports how many distinct message ids the poller has observed.
func (p *Poller) Seen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seen)
}
