package health

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"chat-sentiment/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/process"
)

// Status represents the health status of a component
type Status string

const (
	// StatusUp indicates a component is working correctly
	StatusUp Status = "up"
	// StatusDown indicates a component is not working
	StatusDown Status = "down"
	// StatusDegraded indicates a component is working but with reduced functionality
	StatusDegraded Status = "degraded"
)

// Component represents a system component that can be health-checked
type Component struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Critical    bool      `json:"critical"`
	Description string    `json:"description,omitempty"`
	Error       string    `json:"error,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// Check represents a health check function
type Check func(ctx context.Context) (Status, string, error)

type registration struct {
	check    Check
	critical bool
}

// Checker manages health checks for the system
type Checker struct {
	checks       map[string]registration
	components   map[string]*Component
	checkPeriod  time.Duration
	checkTimeout time.Duration
	version      string
	started      time.Time
	mutex        sync.RWMutex
	log          *logger.Logger
	listeners    []func(healthy bool)
}

// NewChecker creates a new health checker
func NewChecker(log *logger.Logger, checkPeriod time.Duration, version string) *Checker {
	if log == nil {
		log = logger.GetGlobal()
	}
	if checkPeriod <= 0 {
		checkPeriod = 30 * time.Second
	}
	checker := &Checker{
		checks:       make(map[string]registration),
		components:   make(map[string]*Component),
		checkPeriod:  checkPeriod,
		checkTimeout: 5 * time.Second,
		version:      version,
		started:      time.Now(),
		log:          log.WithComponent("health"),
	}

	checker.RegisterCheck("self", false, func(context.Context) (Status, string, error) {
		return StatusUp, "Health checker is running", nil
	})

	return checker
}

// RegisterCheck registers a new health check. A critical component that is
// down makes the whole system unhealthy.
func (c *Checker) RegisterCheck(name string, critical bool, check Check) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.checks[name] = registration{check: check, critical: critical}
	c.components[name] = &Component{
		Name:        name,
		Status:      StatusDown,
		Critical:    critical,
		Description: "Not checked yet",
	}
}

// OnChange registers fn to be called with the system health after every run.
func (c *Checker) OnChange(fn func(healthy bool)) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.listeners = append(c.listeners, fn)
}

// RunChecks executes all registered health checks
func (c *Checker) RunChecks(ctx context.Context) {
	c.mutex.RLock()
	checks := make(map[string]registration, len(c.checks))
	for name, reg := range c.checks {
		checks[name] = reg
	}
	c.mutex.RUnlock()

	results := make(map[string]Component, len(checks))
	for name, reg := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
		status, description, err := reg.check(checkCtx)
		cancel()

		component := Component{
			Name:        name,
			Status:      status,
			Critical:    reg.critical,
			Description: description,
			LastChecked: time.Now(),
		}
		if err != nil {
			component.Error = err.Error()
			c.log.Warn("Health check failed",
				"component", name,
				"status", string(status),
				"error", err.Error(),
			)
		} else {
			c.log.Debug("Health check completed",
				"component", name,
				"status", string(status),
			)
		}
		results[name] = component
	}

	c.mutex.Lock()
	for name, component := range results {
		comp := component
		c.components[name] = &comp
	}
	listeners := append([]func(bool){}, c.listeners...)
	c.mutex.Unlock()

	healthy := c.IsSystemHealthy()
	for _, fn := range listeners {
		fn(healthy)
	}
}

// Start runs checks immediately and then periodically until ctx is done.
func (c *Checker) Start(ctx context.Context) {
	go func() {
		c.RunChecks(ctx)

		ticker := time.NewTicker(c.checkPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.RunChecks(ctx)
			}
		}
	}()
}

// GetStatus returns the current health status
func (c *Checker) GetStatus() map[string]*Component {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	result := make(map[string]*Component, len(c.components))
	for k, v := range c.components {
		componentCopy := *v
		result[k] = &componentCopy
	}

	return result
}

// IsSystemHealthy returns true if all critical components are up
func (c *Checker) IsSystemHealthy() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	for _, component := range c.components {
		if component.Critical && component.Status == StatusDown {
			return false
		}
	}
	return true
}

// OverallStatus is "ok", "degraded" when a non-critical component is not up,
// or "unavailable" when a critical one is down.
func (c *Checker) OverallStatus() string {
	if !c.IsSystemHealthy() {
		return "unavailable"
	}

	c.mutex.RLock()
	defer c.mutex.RUnlock()
	for _, component := range c.components {
		if component.Status != StatusUp {
			return "degraded"
		}
	}
	return "ok"
}

// Handler serves the health report. Critical failures answer 503.
func (c *Checker) Handler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		code := http.StatusOK
		if !c.IsSystemHealthy() {
			code = http.StatusServiceUnavailable
		}

		ctx.JSON(code, gin.H{
			"status":     c.OverallStatus(),
			"version":    c.version,
			"uptime":     time.Since(c.started).Round(time.Second).String(),
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": c.GetStatus(),
		})
	}
}

// RegisterDatabaseCheck registers a critical store health check
func (c *Checker) RegisterDatabaseCheck(ping func(ctx context.Context) error) {
	c.RegisterCheck("database", true, func(ctx context.Context) (Status, string, error) {
		if err := ping(ctx); err != nil {
			return StatusDown, "Message store is unreachable", err
		}
		return StatusUp, "Message store is reachable", nil
	})
}

// RegisterAPICheck registers a non-critical check against an HTTP dependency.
// Any response below 500 counts as reachable.
func (c *Checker) RegisterAPICheck(name, endpoint string, client *http.Client) {
	if client == nil {
		client = http.DefaultClient
	}

	c.RegisterCheck(fmt.Sprintf("api-%s", name), false, func(ctx context.Context) (Status, string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return StatusDown, "Invalid endpoint", err
		}

		start := time.Now()
		resp, err := client.Do(req)
		elapsed := time.Since(start)
		if err != nil {
			return StatusDegraded, "API request failed", err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return StatusDegraded, fmt.Sprintf("API returned status %d", resp.StatusCode),
				fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		return StatusUp, fmt.Sprintf("API is responding (latency: %s)", elapsed), nil
	})
}

// RegisterProcessCheck reports this process's CPU and memory usage.
// It degrades when memory use passes maxMemoryPercent.
func (c *Checker) RegisterProcessCheck(maxMemoryPercent float32) {
	c.RegisterCheck("process", false, func(context.Context) (Status, string, error) {
		p, err := process.NewProcess(int32(os.Getpid()))
		if err != nil {
			return StatusDegraded, "Process stats unavailable", err
		}
		cpu, err := p.CPUPercent()
		if err != nil {
			return StatusDegraded, "Process cpu usage unavailable", err
		}
		ram, err := p.MemoryPercent()
		if err != nil {
			return StatusDegraded, "Process memory usage unavailable", err
		}

		description := fmt.Sprintf("cpu %.1f%%, memory %.1f%%", cpu, ram)
		if maxMemoryPercent > 0 && ram > maxMemoryPercent {
			return StatusDegraded, description, fmt.Errorf("memory usage %.1f%% above %.1f%%", ram, maxMemoryPercent)
		}
		return StatusUp, description, nil
	})
}
