package telemetry

import (
	"sync"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rshade/framebatch/internal/engine/batch"
)

// SchedulerService is the gRPC health service name reported for the scheduler.
const SchedulerService = "framebatch.Scheduler"

// StatusSource reports whether the scheduler is free of alerts. *batch.Monitor
// satisfies it.
type StatusSource interface {
	Healthy() bool
}

// HealthReporter mirrors a StatusSource into a gRPC health server. Register it
// as a frame observer after the source so each frame sees fresh state.
type HealthReporter struct {
	server *health.Server
	source StatusSource
	logger zerolog.Logger

	mu     sync.Mutex
	status healthpb.HealthCheckResponse_ServingStatus
}

// NewHealthReporter creates a reporter that starts out SERVING.
func NewHealthReporter(source StatusSource, logger zerolog.Logger) *HealthReporter {
	h := &HealthReporter{
		server: health.NewServer(),
		source: source,
		logger: logger,
	}
	h.setLocked(healthpb.HealthCheckResponse_SERVING)
	return h
}

// Server returns the underlying health server for registration.
func (h *HealthReporter) Server() *health.Server {
	return h.server
}

// Status returns the current serving status.
func (h *HealthReporter) Status() healthpb.HealthCheckResponse_ServingStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// ObserveFrame re-evaluates the source after a frame.
func (h *HealthReporter) ObserveFrame(stats batch.FrameStats) {
	want := healthpb.HealthCheckResponse_NOT_SERVING
	if h.source.Healthy() {
		want = healthpb.HealthCheckResponse_SERVING
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if want == h.status {
		return
	}
	h.logger.Info().
		Str("service", SchedulerService).
		Uint64("frame", stats.Frame).
		Str("from", h.status.String()).
		Str("to", want.String()).
		Msg("scheduler health changed")
	h.setLocked(want)
}

// Shutdown marks every service NOT_SERVING and ignores later updates.
func (h *HealthReporter) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.server.Shutdown()
	h.status = healthpb.HealthCheckResponse_NOT_SERVING
}

func (h *HealthReporter) setLocked(status healthpb.HealthCheckResponse_ServingStatus) {
	h.status = status
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(SchedulerService, status)
}
