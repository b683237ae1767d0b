package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tazuo/autoloot/internal/domain"
)

func fixed(status string) CheckFunc {
	return func(context.Context) domain.HealthStatus {
		return domain.HealthStatus{Status: status}
	}
}

func TestChecker_Aggregates(t *testing.T) {
	tests := []struct {
		name     string
		statuses map[string]string
		want     string
	}{
		{"no components", nil, domain.HealthStatusHealthy},
		{"all healthy", map[string]string{"a": domain.HealthStatusHealthy, "b": domain.HealthStatusHealthy}, domain.HealthStatusHealthy},
		{"one degraded", map[string]string{"a": domain.HealthStatusHealthy, "b": domain.HealthStatusDegraded}, domain.HealthStatusDegraded},
		{"unhealthy wins", map[string]string{"a": domain.HealthStatusUnhealthy, "b": domain.HealthStatusDegraded}, domain.HealthStatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker()
			for name, status := range tt.statuses {
				c.Register(name, fixed(status))
			}
			report := c.CheckHealth(context.Background())
			assert.Equal(t, tt.want, report.Status)
			assert.Len(t, report.Components, len(tt.statuses))
			assert.Equal(t, tt.want == domain.HealthStatusHealthy, c.IsHealthy(context.Background()))
		})
	}
}

func TestChecker_CachesReport(t *testing.T) {
	c := NewChecker()
	calls := 0
	c.Register("store", func(context.Context) domain.HealthStatus {
		calls++
		return domain.HealthStatus{Status: domain.HealthStatusHealthy}
	})

	c.CheckHealth(context.Background())
	c.CheckHealth(context.Background())
	assert.Equal(t, 1, calls)

	c.SetCacheTTL(0)
	c.CheckHealth(context.Background())
	c.CheckHealth(context.Background())
	assert.Equal(t, 3, calls)
}

func TestChecker_RegisterInvalidatesCache(t *testing.T) {
	c := NewChecker()
	c.Register("a", fixed(domain.HealthStatusHealthy))
	assert.Equal(t, domain.HealthStatusHealthy, c.CheckHealth(context.Background()).Status)

	c.Register("b", fixed(domain.HealthStatusUnhealthy))
	assert.Equal(t, domain.HealthStatusUnhealthy, c.CheckHealth(context.Background()).Status)
}

func TestChecker_CheckComponent(t *testing.T) {
	c := NewChecker()
	c.Register("matcher", fixed(domain.HealthStatusDegraded))

	assert.Equal(t, domain.HealthStatusDegraded, c.CheckComponent(context.Background(), "matcher").Status)

	unknown := c.CheckComponent(context.Background(), "nope")
	assert.Equal(t, domain.HealthStatusUnhealthy, unknown.Status)
	assert.Equal(t, "Unknown component", unknown.Message)
}

func TestChecker_PassesDeadline(t *testing.T) {
	c := NewChecker()
	c.Register("slow", func(ctx context.Context) domain.HealthStatus {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return domain.HealthStatus{Status: domain.HealthStatusHealthy}
	})
	report := c.CheckHealth(context.Background())
	assert.GreaterOrEqual(t, report.Uptime, time.Duration(0))
}
