package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ServiceName is reported by the system endpoints
const ServiceName = "ERP Ledger API"

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping() error
}

// poolReporter is implemented by *persistence.Database
type poolReporter interface {
	Stats() (persistence.ConnectionStats, error)
}

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	version   string
	startTime time.Time
	db        Pinger
}

// NewSystemHandler creates a new SystemHandler; db may be nil
func NewSystemHandler(version string, db Pinger) *SystemHandler {
	return &SystemHandler{
		version:   version,
		startTime: time.Now(),
		db:        db,
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	// Pool is omitted when the database does not report pool statistics
	Pool *PoolStatsResponse `json:"pool,omitempty"`
}

// PoolStatsResponse reports the database connection pool
type PoolStatsResponse struct {
	MaxOpen   int    `json:"max_open"`
	Open      int    `json:"open"`
	InUse     int    `json:"in_use"`
	Idle      int    `json:"idle"`
	WaitCount int64  `json:"wait_count"`
	WaitTime  string `json:"wait_time"`
}

// HealthResponse reports liveness and the state of the database
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// GetSystemInfo returns basic system information including version and uptime
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	resp := SystemInfoResponse{
		Name:      ServiceName,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	if r, ok := h.db.(poolReporter); ok {
		if stats, err := r.Stats(); err == nil {
			resp.Pool = &PoolStatsResponse{
				MaxOpen:   stats.MaxOpenConnections,
				Open:      stats.OpenConnections,
				InUse:     stats.InUse,
				Idle:      stats.Idle,
				WaitCount: stats.WaitCount,
				WaitTime:  stats.WaitDuration.String(),
			}
		}
	}
	h.Success(c, resp)
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping is a cheap liveness check
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// Health is the readiness check; it fails with 503 when the database is down
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Database: "ok"}
	if h.db == nil {
		resp.Database = "unconfigured"
	} else if err := h.db.Ping(); err != nil {
		resp.Status = "degraded"
		resp.Database = "unreachable"
		c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: resp})
		return
	}
	h.Success(c, resp)
}
