package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/satriahrh/rapat/adapters/desktop"
	"github.com/satriahrh/rapat/adapters/llm"
	"github.com/satriahrh/rapat/adapters/storage"
	"github.com/satriahrh/rapat/adapters/stt"
	"github.com/satriahrh/rapat/audio"
	"github.com/satriahrh/rapat/capture"
	"github.com/satriahrh/rapat/config"
	"github.com/satriahrh/rapat/domain/repositories"
	"github.com/satriahrh/rapat/internal/api"
	"github.com/satriahrh/rapat/internal/auth"
	"github.com/satriahrh/rapat/internal/engine"
	"github.com/satriahrh/rapat/internal/metrics"
	"github.com/satriahrh/rapat/internal/websocket"
	"github.com/satriahrh/rapat/usecase"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()
	store := config.NewStore(cfg)

	// Initialize adapters. The selectors resolve their backend from the
	// config store on every dispatch, so PUT /config switches providers
	// without a restart.
	languageModel := llm.NewSelector(store, logger)
	transcriber := stt.NewSelector(store, logger)
	sessionStorage := storage.NewMemory(logger)

	engineMetrics := metrics.New(nil)

	// Capture paths share nothing; the microphone owns its buffer and the
	// transcription loop drains it. System audio accumulates in its own
	// buffer until the capture is stopped.
	micBuffer := audio.NewBuffer()
	microphone := capture.NewMicrophone(micBuffer, logger)
	microphone.SetSampleCounter(engineMetrics.CaptureSamples)
	systemBuffer := audio.NewBuffer()
	system := capture.NewSystem(capture.NewLoopback(), systemBuffer, logger)
	system.SetSampleCounter(engineMetrics.CaptureSamples)

	// Initialize usecase services
	sessions := usecase.NewSessionService(sessionStorage, logger)

	// Initialize WebSocket hub; it fans engine events out to UI clients.
	hub := websocket.NewHub(logger)
	go hub.Run()

	eng := engine.New(engine.Options{
		Logger:      logger,
		Config:      store,
		Sessions:    sessions,
		Microphone:  microphone,
		System:      system,
		MicBuffer:   micBuffer,
		Windows:     buildWindowLister(logger),
		Transcriber: transcriber,
		LLM:         languageModel,
		Emitter:     hub,
		Metrics:     engineMetrics,
	})

	engineCtx, stopEngine := context.WithCancel(context.Background())
	defer stopEngine()
	go eng.Run(engineCtx)

	issuer, err := auth.NewIssuer(cfg.JWTSecret, 24*time.Hour)
	if err != nil {
		logger.Fatal("Failed to initialize token issuer", zap.Error(err))
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	server := &api.Server{
		Sessions:   sessions,
		Engine:     eng,
		Microphone: microphone,
		System:     system,
		MicBuffer:  micBuffer,
		Config:     store,
		Issuer:     issuer,
		Hub:        hub,
		Metrics:    engineMetrics,
		Logger:     logger,
	}
	server.InitRoutes(e)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Port),
		zap.String("llm_provider", string(cfg.Provider)),
		zap.String("stt_provider", cfg.STTProvider))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")
	stopEngine()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// buildWindowLister wires window enumeration. An external listing command
// (for example `wmctrl -l`) covers desktops that expose one; without it the
// lister is static and detection stays dormant until titles are injected.
func buildWindowLister(logger *zap.Logger) repositories.WindowLister {
	if command := os.Getenv("WINDOW_LIST_COMMAND"); command != "" {
		return desktop.NewCommandWindows(strings.Fields(command), logger)
	}
	logger.Warn("WINDOW_LIST_COMMAND not set, meeting detection has no window source")
	return desktop.NewStaticWindows(logger)
}
