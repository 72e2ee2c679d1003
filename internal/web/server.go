// Package web provides the JSON control API for the traffic daemon.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/totally-not-vj/tempo-traffic-control/internal/control"
	"github.com/totally-not-vj/tempo-traffic-control/internal/state"
	"github.com/totally-not-vj/tempo-traffic-control/internal/traffic"
)

// Server serves the control API over HTTP.
type Server struct {
	httpServer *http.Server
	store      *state.Store
	gateway    *control.Gateway
	policy     traffic.Policy
}

// New creates a Server that reads snapshots from store and routes manual
// override requests through gateway. All routes allow cross-origin calls
// so the operator dashboard can be served from anywhere.
func New(addr string, store *state.Store, gateway *control.Gateway, policy traffic.Policy) *Server {
	s := &Server{store: store, gateway: gateway, policy: policy}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	router.GET("/", s.handleIndex)
	router.GET("/get_counts", s.handleCounts)
	router.GET("/set_signal/:direction", s.handleSetSignal)
	router.POST("/set_signal/:direction", s.handleSetSignal)
	router.GET("/end_override", s.handleEndOverride)
	router.POST("/end_override", s.handleEndOverride)
	router.GET("/system_status", s.handleSystemStatus)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: router,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, IndexResponse{
		Status: "Smart Traffic Management System is running",
		Endpoints: []string{
			"/get_counts",
			"/set_signal/<direction>",
			"/end_override",
			"/system_status",
		},
	})
}

func (s *Server) handleCounts(c *gin.Context) {
	snap := s.store.Snapshot()
	c.JSON(http.StatusOK, CountsResponse{
		Counts:         countsJSON(snap.Counts),
		Signal:         string(snap.Active),
		ManualOverride: snap.Override,
		Timestamp:      snap.Now.Unix(),
		TotalVehicles:  snap.Counts.Total(),
	})
}

func (s *Server) handleSetSignal(c *gin.Context) {
	snap, err := s.gateway.SetManual(c.Param("direction"))
	if err != nil {
		var invalid *traffic.InvalidDirectionError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Status:  "error",
				Message: invalid.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Status:  "error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, OverrideResponse{
		Status:         "success",
		Message:        fmt.Sprintf("signal manually set to %s", snap.Active),
		CurrentSignal:  string(snap.Active),
		ManualOverride: snap.Override,
	})
}

func (s *Server) handleEndOverride(c *gin.Context) {
	snap := s.gateway.ClearManual()
	c.JSON(http.StatusOK, OverrideResponse{
		Status:         "success",
		Message:        "manual override ended, automatic control resumed",
		CurrentSignal:  string(snap.Active),
		ManualOverride: snap.Override,
	})
}

func (s *Server) handleSystemStatus(c *gin.Context) {
	snap := s.store.Snapshot()
	c.JSON(http.StatusOK, SystemStatusResponse{
		DetectionActive:      snap.DetectionActive,
		ManualOverride:       snap.Override,
		CurrentSignal:        string(snap.Active),
		Uptime:               snap.PhaseAge().Seconds(),
		TotalVehicles:        snap.Counts.Total(),
		HighTrafficThreshold: s.policy.HighThreshold,
		SignalTiming: SignalTimingJSON{
			MaxGreenTime: s.policy.MaxGreen.Seconds(),
			MinGreenTime: s.policy.MinGreen.Seconds(),
		},
	})
}
