package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/spf13/afero"

	"sprintpulse/internal/config"
)

// Health states
const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
	StatusAlive    = "alive"
	StatusDisabled = "disabled"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	paths     *config.Paths
	fs        afero.Fs
	remote    bool
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a health service. remote tells whether an object
// store is configured for the relay.
func NewHealthService(version, buildTime string, paths *config.Paths, fsys afero.Fs, remote bool, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime),
		slog.Bool("remote_storage", remote))

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		paths:     paths,
		fs:        fsys,
		remote:    remote,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusOK,
		Timestamp: time.Now(),
		Version:   hs.version,
	}

	hs.logger.DebugContext(ctx, "HealthCheck: completed",
		slog.String("status", status.Status),
		slog.String("uptime", time.Since(hs.startTime).String()))

	return status
}

// ReadinessCheck reports whether the temp workspace is writable. A disabled
// remote store does not make the service unready.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"workspace": hs.checkWorkspaceHealth(),
			"storage":   hs.checkStorageHealth(),
		},
	}

	for _, service := range status.Services {
		if service.Status == StatusNotReady {
			status.Status = StatusNotReady
			break
		}
	}

	if status.Status != StatusReady {
		hs.logger.WarnContext(ctx, "ReadinessCheck: service not ready",
			slog.Any("services", status.Services))
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusAlive,
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"name":         config.AppName,
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	return result
}

// checkWorkspaceHealth verifies the temp directory accepts new workspaces
func (hs *HealthService) checkWorkspaceHealth() ServiceHealth {
	if hs.paths == nil || hs.fs == nil {
		return ServiceHealth{Status: StatusNotReady, Message: "paths not configured"}
	}

	tempDir := hs.paths.TempDir
	if err := hs.fs.MkdirAll(tempDir, 0755); err != nil {
		return ServiceHealth{
			Status:  StatusNotReady,
			Message: fmt.Sprintf("Cannot create temp directory: %v", err),
		}
	}

	probe, err := afero.TempFile(hs.fs, tempDir, ".health_")
	if err != nil {
		return ServiceHealth{
			Status:  StatusNotReady,
			Message: fmt.Sprintf("Cannot write to temp directory: %v", err),
		}
	}
	name := probe.Name()
	probe.Close()
	hs.fs.Remove(name)

	return ServiceHealth{
		Status:  StatusReady,
		Message: "Workspace directory is writable",
		Uptime:  time.Since(hs.startTime).String(),
	}
}

func (hs *HealthService) checkStorageHealth() ServiceHealth {
	if !hs.remote {
		return ServiceHealth{Status: StatusDisabled, Message: "Remote storage is not configured"}
	}
	return ServiceHealth{Status: StatusReady, Message: "Remote storage client initialized"}
}
