package health

import (
	"context"
	"fmt"
	"time"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/database"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Check is one dependency check. A failing critical check makes the whole
// service unhealthy; any other failure only degrades it.
type Check struct {
	Name     string
	Critical bool
	Ping     func(ctx context.Context) error
}

// HealthChecker manages health checks for all services
type HealthChecker struct {
	checks     []Check
	critical   map[string]bool
	healthRepo models.SystemHealthRepository
	cache      *database.Cache
	logger     *logrus.Logger
	timeout    time.Duration
}

// NewHealthChecker builds a checker. healthRepo and cache may be nil.
func NewHealthChecker(checks []Check, healthRepo models.SystemHealthRepository, cache *database.Cache, logger *logrus.Logger) *HealthChecker {
	critical := make(map[string]bool, len(checks))
	for _, c := range checks {
		critical[c.Name] = c.Critical
	}
	return &HealthChecker{
		checks:     checks,
		critical:   critical,
		healthRepo: healthRepo,
		cache:      cache,
		logger:     logger,
		timeout:    5 * time.Second,
	}
}

// ServiceHealth represents the health status of a service
type ServiceHealth struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	ResponseTime int    `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
	LastChecked  string `json:"last_checked"`
}

// OverallHealth represents the overall system health
type OverallHealth struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
	Uptime   string          `json:"uptime"`
}

func (h *HealthChecker) check(ctx context.Context, c Check) ServiceHealth {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	err := c.Ping(ctx)
	responseTime := int(time.Since(start).Milliseconds())

	status := StatusHealthy
	errorMsg := ""
	if err != nil {
		status = StatusUnhealthy
		errorMsg = err.Error()
		h.logger.WithError(err).WithField("service", c.Name).Error("Health check failed")
	}

	if h.healthRepo != nil {
		if err := h.healthRepo.UpdateServiceHealth(c.Name, status, responseTime, errorMsg); err != nil {
			h.logger.WithError(err).WithField("service", c.Name).Warn("Failed to record health status")
		}
	}

	return ServiceHealth{
		Name:         c.Name,
		Status:       status,
		ResponseTime: responseTime,
		Error:        errorMsg,
		LastChecked:  time.Now().Format(time.RFC3339),
	}
}

// CheckAll performs health checks on all services
func (h *HealthChecker) CheckAll(ctx context.Context) OverallHealth {
	services := make([]ServiceHealth, 0, len(h.checks))
	for _, c := range h.checks {
		services = append(services, h.check(ctx, c))
	}

	return OverallHealth{
		Status:   h.overall(services),
		Services: services,
		Uptime:   h.getUptime(),
	}
}

func (h *HealthChecker) overall(services []ServiceHealth) string {
	overallStatus := StatusHealthy
	for _, service := range services {
		if service.Status == StatusHealthy {
			continue
		}
		if h.critical[service.Name] {
			return StatusUnhealthy
		}
		overallStatus = StatusDegraded
	}
	return overallStatus
}

// CheckCached returns the last recorded status: from Redis when a cache is
// configured, else the latest row per service in Postgres.
func (h *HealthChecker) CheckCached(ctx context.Context) (*OverallHealth, error) {
	var cachedHealth []models.SystemHealth
	var err error
	switch {
	case h.cache != nil:
		cachedHealth, err = h.cache.GetCachedSystemHealth(ctx)
	case h.healthRepo != nil:
		cachedHealth, err = h.healthRepo.GetAllServicesHealth()
		if err == nil && len(cachedHealth) == 0 {
			err = fmt.Errorf("no recorded health status")
		}
	default:
		err = fmt.Errorf("health cache: %w", database.ErrNotConfigured)
	}
	if err != nil {
		return nil, err
	}

	services := make([]ServiceHealth, len(cachedHealth))
	for i, health := range cachedHealth {
		services[i] = ServiceHealth{
			Name:         health.ServiceName,
			Status:       health.Status,
			ResponseTime: health.ResponseTimeMs,
			Error:        health.ErrorMessage,
			LastChecked:  health.CheckedAt.Format(time.RFC3339),
		}
	}

	return &OverallHealth{
		Status:   h.overall(services),
		Services: services,
		Uptime:   h.getUptime(),
	}, nil
}

var startTime = time.Now()

func (h *HealthChecker) getUptime() string {
	return time.Since(startTime).Round(time.Second).String()
}

// PeriodicHealthCheck runs all checks every interval until ctx is done,
// recording results in Postgres and Redis. It does nothing when neither is
// configured.
func (h *HealthChecker) PeriodicHealthCheck(ctx context.Context, interval time.Duration) {
	if h.cache == nil && h.healthRepo == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			health := h.CheckAll(ctx)
			if h.cache == nil {
				h.logger.WithField("status", health.Status).Debug("Periodic health check completed")
				continue
			}

			cacheCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			healthModels := make([]models.SystemHealth, len(health.Services))
			for i, service := range health.Services {
				checkedAt, _ := time.Parse(time.RFC3339, service.LastChecked)
				healthModels[i] = models.SystemHealth{
					ServiceName:    service.Name,
					Status:         service.Status,
					ResponseTimeMs: service.ResponseTime,
					ErrorMessage:   service.Error,
					CheckedAt:      checkedAt,
				}
			}

			if err := h.cache.CacheSystemHealth(cacheCtx, healthModels, 2*interval); err != nil {
				h.logger.WithError(err).Error("Failed to cache health status")
			}
			cancel()

			h.logger.WithField("status", health.Status).Debug("Periodic health check completed")
		}
	}
}
