// Package api exposes the HTTP surface of the live session server.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/satriahrh/rapat/audio"
	"github.com/satriahrh/rapat/capture"
	"github.com/satriahrh/rapat/config"
	"github.com/satriahrh/rapat/internal/auth"
	"github.com/satriahrh/rapat/internal/engine"
	"github.com/satriahrh/rapat/internal/metrics"
	"github.com/satriahrh/rapat/internal/websocket"
	"github.com/satriahrh/rapat/usecase"
)

// Server bundles the collaborators the HTTP handlers need.
type Server struct {
	Sessions   *usecase.SessionService
	Engine     *engine.Engine
	Microphone *capture.Microphone
	System     *capture.System
	MicBuffer  *audio.Buffer
	Config     *config.Store
	Issuer     *auth.Issuer
	Hub        *websocket.Hub
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

// InitRoutes initializes all API routes.
func (s *Server) InitRoutes(e *echo.Echo) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "rapat-server",
		})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.POST("/auth/token", s.issueToken)

	v1.POST("/sessions", s.createSession)
	v1.GET("/sessions/current", s.currentSession)
	v1.POST("/sessions/current/end", s.endSession)
	v1.GET("/sessions/current/transcript", s.currentTranscript)
	v1.POST("/sessions/current/transcript", s.appendTranscript)
	v1.POST("/sessions/current/summary", s.generateSummary)

	v1.GET("/capture/status", s.captureStatus)

	v1.GET("/config", s.getConfig)
	v1.PUT("/config", s.updateConfig)

	// WebSocket endpoint with JWT validation
	e.GET("/ws", s.websocketWithAuth)
}

func (s *Server) issueToken(c echo.Context) error {
	var req TokenRequest
	if err := c.Bind(&req); err != nil {
		s.Logger.Error("Failed to bind token request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.ClientID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Client ID is required",
		})
	}

	token, err := s.Issuer.GenerateClientToken(req.ClientID)
	if err != nil {
		s.Logger.Error("Failed to generate client token",
			zap.String("client_id", req.ClientID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	return c.JSON(http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(24 * time.Hour),
		ClientID:  req.ClientID,
	})
}

func (s *Server) createSession(c echo.Context) error {
	var req CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		s.Logger.Error("Failed to bind create session request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Title is required",
		})
	}

	session, err := s.Sessions.Create(req.Title, req.Purpose, req.Context)
	if err != nil {
		if errors.Is(err, usecase.ErrAlreadyActive) {
			return c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "session_already_active",
				Message: err.Error(),
			})
		}
		s.Logger.Error("Failed to create session", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal_error",
		})
	}

	return c.JSON(http.StatusCreated, session)
}

func (s *Server) currentSession(c echo.Context) error {
	session, active := s.Sessions.Snapshot()
	if !active {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "no_active_session",
			Message: "No active session",
		})
	}
	return c.JSON(http.StatusOK, session)
}

func (s *Server) endSession(c echo.Context) error {
	session, err := s.Sessions.End()
	if err != nil {
		if errors.Is(err, usecase.ErrNoActiveSession) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "no_active_session",
				Message: "No active session",
			})
		}
		s.Logger.Error("Failed to end session", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal_error",
		})
	}

	if s.Metrics != nil {
		s.Metrics.SessionsEnded.Inc()
	}

	// Capture keeps its own lifecycle; ending the session stops both paths
	// best-effort.
	s.stopCaptures()

	return c.JSON(http.StatusOK, session)
}

func (s *Server) stopCaptures() {
	if s.Microphone != nil {
		if _, err := s.Microphone.Stop(); err != nil && !errors.Is(err, capture.ErrNotCapturing) {
			s.Logger.Warn("Failed to stop microphone capture", zap.Error(err))
		}
	}
	if s.System != nil {
		if _, err := s.System.Stop(); err != nil && !errors.Is(err, capture.ErrNotCapturing) {
			s.Logger.Warn("Failed to stop system capture", zap.Error(err))
		}
	}
}

func (s *Server) currentTranscript(c echo.Context) error {
	session, active := s.Sessions.Snapshot()
	if !active {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "no_active_session",
			Message: "No active session",
		})
	}
	return c.JSON(http.StatusOK, session.Transcript)
}

// appendTranscript lets the UI push an entry into the live transcript, e.g.
// a typed note or a correction, alongside what the transcription loop adds.
func (s *Server) appendTranscript(c echo.Context) error {
	var req AppendTranscriptRequest
	if err := c.Bind(&req); err != nil {
		s.Logger.Error("Failed to bind transcript entry request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.Text == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Text is required",
		})
	}
	if req.Speaker == "" {
		req.Speaker = "You"
	}

	entry, err := s.Sessions.AppendTranscript(req.Speaker, req.Text)
	if err != nil {
		if errors.Is(err, usecase.ErrNoActiveSession) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "no_active_session",
				Message: "No active session",
			})
		}
		s.Logger.Error("Failed to append transcript entry", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal_error",
		})
	}

	return c.JSON(http.StatusCreated, entry)
}

func (s *Server) generateSummary(c echo.Context) error {
	summary, err := s.Engine.GenerateSummary(c.Request().Context())
	if err != nil {
		if errors.Is(err, usecase.ErrNoActiveSession) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "no_active_session",
				Message: "No active session",
			})
		}
		s.Logger.Error("Failed to generate summary", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "summary_failed",
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, SummaryResponse{Summary: summary})
}

func (s *Server) captureStatus(c echo.Context) error {
	status := CaptureStatusResponse{
		BufferedSamples:  s.MicBuffer.Len(),
		BufferedSeconds:  s.MicBuffer.Duration().Seconds(),
		BufferSampleRate: s.MicBuffer.SampleRate(),
	}
	if s.Microphone != nil {
		status.MicrophoneActive = s.Microphone.Capturing()
	}
	if s.System != nil {
		status.SystemActive = s.System.Capturing()
	}
	return c.JSON(http.StatusOK, status)
}

// getConfig returns the live configuration. Secrets are tagged json:"-" on
// the Config struct and never leave the process.
func (s *Server) getConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Config.Snapshot())
}

func (s *Server) updateConfig(c echo.Context) error {
	// Start from the current snapshot so omitted fields keep their values,
	// including the key fields the JSON codec never touches.
	cfg := s.Config.Snapshot()
	if err := c.Bind(&cfg); err != nil {
		s.Logger.Error("Failed to bind config update", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if cfg.DetectionInterval <= 0 || cfg.TranscriptionInterval <= 0 || cfg.SuggestionInterval <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_config",
			Message: "Loop intervals must be positive",
		})
	}

	s.Config.Update(cfg)
	s.Logger.Info("Configuration updated", zap.String("provider", string(cfg.Provider)))
	return c.JSON(http.StatusOK, s.Config.Snapshot())
}

// websocketWithAuth handles WebSocket connections with JWT authentication.
// Browsers cannot set headers on websocket upgrades, so the token may also
// arrive as a query parameter.
func (s *Server) websocketWithAuth(c echo.Context) error {
	var token string
	authHeader := c.Request().Header.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		token = authHeader[7:]
	}
	if token == "" {
		token = c.QueryParam("token")
	}

	if token == "" {
		s.Logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required",
		})
	}

	claims, err := s.Issuer.ValidateToken(token)
	if err != nil {
		s.Logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}

	s.Logger.Info("WebSocket connection authenticated",
		zap.String("client_id", claims.ClientID))

	return websocket.HandleWebSocket(s.Hub, c, s.Logger)
}
