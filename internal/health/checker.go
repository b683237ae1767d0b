package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tazuo/autoloot/internal/domain"
)

// CheckFunc reports the health of one component.
type CheckFunc func(ctx context.Context) domain.HealthStatus

// Report is the aggregated health of every registered component.
type Report struct {
	Status     string                         `json:"status"`
	Timestamp  time.Time                      `json:"timestamp"`
	Uptime     time.Duration                  `json:"uptime"`
	Components map[string]domain.HealthStatus `json:"components"`
}

// Checker aggregates component checks, caching the result for a short TTL
// so the endpoint stays cheap under polling.
type Checker struct {
	mu     sync.Mutex
	checks map[string]CheckFunc

	timeout   time.Duration
	cacheTTL  time.Duration
	startTime time.Time

	lastCheck time.Time
	last      Report
}

// NewChecker creates a checker with no components.
func NewChecker() *Checker {
	return &Checker{
		checks:    make(map[string]CheckFunc),
		timeout:   5 * time.Second,
		cacheTTL:  5 * time.Second,
		startTime: time.Now(),
	}
}

// Register adds or replaces a component check and invalidates the cache.
func (h *Checker) Register(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
	h.lastCheck = time.Time{}
}

// SetCacheTTL changes how long a report is reused. Zero disables caching.
func (h *Checker) SetCacheTTL(ttl time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cacheTTL = ttl
	h.lastCheck = time.Time{}
}

// CheckHealth runs every component check, or returns the cached report.
func (h *Checker) CheckHealth(ctx context.Context) Report {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.lastCheck.IsZero() && time.Since(h.lastCheck) < h.cacheTTL {
		return h.last
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	now := time.Now()
	report := Report{
		Status:     domain.HealthStatusHealthy,
		Timestamp:  now,
		Uptime:     now.Sub(h.startTime),
		Components: make(map[string]domain.HealthStatus, len(h.checks)),
	}
	for _, name := range h.names() {
		status := h.checks[name](checkCtx)
		report.Components[name] = status
		report.Status = aggregateStatus(report.Status, status.Status)
	}

	h.lastCheck = now
	h.last = report
	return report
}

// CheckComponent runs a single check by name.
func (h *Checker) CheckComponent(ctx context.Context, name string) domain.HealthStatus {
	h.mu.Lock()
	check, ok := h.checks[name]
	h.mu.Unlock()

	if !ok {
		return domain.HealthStatus{
			Status:  domain.HealthStatusUnhealthy,
			Message: "Unknown component",
			Details: map[string]any{"component": name},
		}
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return check(checkCtx)
}

func (h *Checker) IsHealthy(ctx context.Context) bool {
	return h.CheckHealth(ctx).Status == domain.HealthStatusHealthy
}

func (h *Checker) names() []string {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// aggregateStatus keeps the worse of two statuses.
func aggregateStatus(current, component string) string {
	priority := map[string]int{
		domain.HealthStatusHealthy:   0,
		domain.HealthStatusDegraded:  1,
		domain.HealthStatusUnhealthy: 2,
	}
	if priority[component] > priority[current] {
		return component
	}
	return current
}
