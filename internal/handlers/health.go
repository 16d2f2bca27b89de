// internal/handlers/health.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/hibiken/asynq"
)

const readinessTimeout = 3 * time.Second

// Pinger is anything whose reachability can be checked
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// AsynqPinger checks the job queue's redis through an inspector
func AsynqPinger(inspector *asynq.Inspector) Pinger {
	return PingerFunc(func(context.Context) error {
		_, err := inspector.Queues()
		return err
	})
}

type dependency struct {
	name   string
	pinger Pinger
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	version      string
	environment  string
	dependencies []dependency
	logger       *slog.Logger
	startTime    time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, environment string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		version:     version,
		environment: environment,
		logger:      logger.With(slog.String("handler", "health")),
		startTime:   time.Now(),
	}
}

// AddDependency registers a backend that /ready checks
func (h *HealthHandler) AddDependency(name string, p Pinger) {
	h.dependencies = append(h.dependencies, dependency{name: name, pinger: p})
}

// HealthStatus represents the health status of the application
type HealthStatus struct {
	Status      string     `json:"status"`
	Version     string     `json:"version"`
	Environment string     `json:"environment"`
	Uptime      string     `json:"uptime"`
	Timestamp   time.Time  `json:"timestamp"`
	System      SystemInfo `json:"system"`
}

// ServiceInfo represents the status of a service dependency
type ServiceInfo struct {
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
	ResponseTime string `json:"response_time,omitempty"`
}

// ReadinessStatus is the body of /ready
type ReadinessStatus struct {
	Ready    bool                   `json:"ready"`
	Services map[string]ServiceInfo `json:"services"`
}

// SystemInfo represents system-level information
type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	NumCPU        int    `json:"num_cpu"`
	MemoryAllocMB uint64 `json:"memory_alloc_mb"`
	NumGC         uint32 `json:"num_gc"`
}

// Health handles the /health liveness endpoint. It never touches a backend.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	respondJSON(w, h.logger, http.StatusOK, HealthStatus{
		Status:      "healthy",
		Version:     h.version,
		Environment: h.environment,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:   time.Now().UTC(),
		System:      systemInfo(),
	})
}

// Readiness handles the /ready endpoint
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := ReadinessStatus{
		Ready:    true,
		Services: make(map[string]ServiceInfo, len(h.dependencies)),
	}

	for _, dep := range h.dependencies {
		start := time.Now()
		info := ServiceInfo{Status: "ready"}

		if err := dep.pinger.Ping(ctx); err != nil {
			status.Ready = false
			info.Status = "not ready"
			h.logger.ErrorContext(ctx, "readiness check failed",
				slog.String("dependency", dep.name),
				slog.String("error", err.Error()))
		}

		info.ResponseTime = time.Since(start).String()
		status.Services[dep.name] = info
	}

	statusCode := http.StatusOK
	if !status.Ready {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respondJSON(w, h.logger, statusCode, status)
}

func systemInfo() SystemInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		MemoryAllocMB: memStats.Alloc / 1024 / 1024,
		NumGC:         memStats.NumGC,
	}
}
