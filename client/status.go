// Package client implements the polling side of the message channel:
// an HTTP client, a poller that diffs snapshots by id, and a
// connection-status tracker.
package client

import (
	"sync"
	"time"

	"chat-sentiment/backend/pkg/logger"
)

// ConnectionState is the display-only reachability of the server.
type ConnectionState string

const (
	StateUnknown      ConnectionState = "unknown"
	StateConnected    ConnectionState = "connected"
	StateDisconnected ConnectionState = "disconnected"
)

// StatusTracker follows poll outcomes. It starts Unknown and never settles:
// every success moves it to Connected and every failure to Disconnected.
type StatusTracker struct {
	mutex       sync.RWMutex
	state       ConnectionState
	lastChange  time.Time
	lastError   string
	log         *logger.Logger
	onChange    func(from, to ConnectionState)
	successes   uint64
	failures    uint64
	transitions uint64
}

func NewStatusTracker(log *logger.Logger) *StatusTracker {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &StatusTracker{
		state:      StateUnknown,
		lastChange: time.Now(),
		log:        log.WithComponent("connection"),
	}
}

// OnChange sets a callback run after each state transition.
func (t *StatusTracker) OnChange(fn func(from, to ConnectionState)) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.onChange = fn
}

// Record applies one poll outcome.
func (t *StatusTracker) Record(err error) {
	next := StateConnected
	if err != nil {
		next = StateDisconnected
	}

	t.mutex.Lock()
	if err != nil {
		t.failures++
		t.lastError = err.Error()
	} else {
		t.successes++
		t.lastError = ""
	}
	prev := t.state
	changed := prev != next
	if changed {
		t.state = next
		t.lastChange = time.Now()
		t.transitions++
	}
	onChange := t.onChange
	t.mutex.Unlock()

	if !changed {
		return
	}
	if err != nil {
		t.log.Warn("Server unreachable", "from", string(prev), "error", err.Error())
	} else {
		t.log.Info("Server reachable", "from", string(prev))
	}
	if onChange != nil {
		onChange(prev, next)
	}
}

func (t *StatusTracker) State() ConnectionState {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.state
}

// StatusSnapshot is a point-in-time copy of the tracker.
type StatusSnapshot struct {
	State       ConnectionState
	Since       time.Time
	LastError   string
	Successes   uint64
	Failures    uint64
	Transitions uint64
}

func (t *StatusTracker) Snapshot() StatusSnapshot {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return StatusSnapshot{
		State:       t.state,
		Since:       t.lastChange,
		LastError:   t.lastError,
		Successes:   t.successes,
		Failures:    t.failures,
		Transitions: t.transitions,
	}
}
