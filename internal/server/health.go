package server

import (
	"context"
	"net/http"
	"sort"
	"time"

	"blog-gateway/internal/response"
)

// HealthChecker é qualquer dependência que sabe se está de pé.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

type HealthFunc func(ctx context.Context) error

func (f HealthFunc) CheckHealth(ctx context.Context) error { return f(ctx) }

type HealthReport struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

func healthHandler(version string, checkers map[string]HealthChecker) http.HandlerFunc {
	names := make([]string, 0, len(checkers))
	for name := range checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		report := HealthReport{
			Status:    "healthy",
			Version:   version,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		status := http.StatusOK
		if len(names) > 0 {
			report.Checks = make(map[string]string, len(names))
		}
		for _, name := range names {
			if err := checkers[name].CheckHealth(ctx); err != nil {
				report.Checks[name] = "unhealthy"
				report.Status = "unhealthy"
				status = http.StatusServiceUnavailable
				continue
			}
			report.Checks[name] = "healthy"
		}

		msg := "Service is healthy"
		if status != http.StatusOK {
			msg = "Service is unhealthy"
		}
		response.Write(w, response.Format(report, msg, status))
	}
}
