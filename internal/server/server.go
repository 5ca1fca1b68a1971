// Package server exposes the tap and long-press gestures over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/menta2k/vision-app/pkg/controller"
	"github.com/menta2k/vision-app/pkg/types"
)

const (
	EndPointHealth   = "/healthz"
	EndPointDescribe = "/v1/describe"
	EndPointReplay   = "/v1/replay"
	EndPointStatus   = "/v1/status"
	EndPointMetrics  = "/metrics"
)

// Gestures is the part of the controller the HTTP surface drives.
type Gestures interface {
	Describe(ctx context.Context) (string, error)
	Replay(ctx context.Context) (string, bool)
	Status() types.Status
}

type DescribeResponse struct {
	Description string `json:"description,omitempty"`
	Spoken      string `json:"spoken"`
	Error       string `json:"error,omitempty"`
	Kind        string `json:"kind,omitempty"`
}

type ReplayResponse struct {
	Description string `json:"description,omitempty"`
	Replayed    bool   `json:"replayed"`
	Spoken      string `json:"spoken"`
}

type Server struct {
	gestures Gestures
	router   *gin.Engine
	version  string
}

// New creates a new gesture server with its routes registered
func New(gestures Gestures, version string) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	s := &Server{gestures: gestures, router: router, version: version}
	router.GET(EndPointHealth, s.health)
	router.GET(EndPointStatus, s.status)
	router.POST(EndPointDescribe, s.describe)
	router.POST(EndPointReplay, s.replay)
	router.GET(EndPointMetrics, gin.WrapH(promhttp.Handler()))
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("gesture server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("gesture server stopped")
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "vision-app",
		"version": s.version,
	})
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.gestures.Status())
}

// describe runs the pipeline to completion even if the client goes away.
func (s *Server) describe(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())

	text, err := s.gestures.Describe(ctx)
	if err == nil {
		c.JSON(http.StatusOK, DescribeResponse{Description: text, Spoken: text})
		return
	}

	if errors.Is(err, controller.ErrBusy) {
		c.JSON(http.StatusConflict, DescribeResponse{Error: err.Error(), Kind: "busy"})
		return
	}

	kind := types.KindOf(err)
	c.JSON(statusForKind(kind), DescribeResponse{
		Spoken: controller.SpokenMessage(err),
		Error:  err.Error(),
		Kind:   string(kind),
	})
}

func (s *Server) replay(c *gin.Context) {
	text, ok := s.gestures.Replay(c.Request.Context())
	if !ok {
		c.JSON(http.StatusOK, ReplayResponse{Spoken: controller.MsgNothingToReplay})
		return
	}
	c.JSON(http.StatusOK, ReplayResponse{Description: text, Replayed: true, Spoken: text})
}

func statusForKind(kind types.ErrorKind) int {
	switch kind {
	case types.KindPermissionDenied:
		return http.StatusForbidden
	case types.KindConfiguration:
		return http.StatusServiceUnavailable
	case types.KindRemoteService, types.KindEmptyResponse:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).Round(time.Millisecond).String(),
		}).Debug("http request")
	}
}
