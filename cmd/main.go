package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	httpapi "github.com/immxrtalbeast/classboard/internal/api/http"
	"github.com/immxrtalbeast/classboard/internal/config"
	"github.com/immxrtalbeast/classboard/internal/repository"
	"github.com/immxrtalbeast/classboard/internal/service"
	"github.com/immxrtalbeast/classboard/lib/logger/sl"
	"github.com/immxrtalbeast/classboard/lib/logger/slogpretty"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	if cfg.Env == envProd {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	roomRepo := repository.NewInMemoryRoomRepository()
	sessionRepo := repository.NewInMemorySessionRepository()

	canvasService := service.NewCanvasService(roomRepo, sessionRepo, log)
	signalService := service.NewSignalService(sessionRepo, log)
	sessionService := service.NewSessionService(sessionRepo, signalService, cfg.WebSocket.SendBuffer, log)

	if cfg.Rooms.IdleTTL > 0 {
		log.Info("idle room eviction enabled",
			slog.Duration("idle_ttl", cfg.Rooms.IdleTTL),
			slog.Duration("sweep_interval", cfg.Rooms.SweepInterval),
		)
		go canvasService.RunJanitor(ctx, cfg.Rooms.IdleTTL, cfg.Rooms.SweepInterval)
	}

	dispatcher := httpapi.NewDispatcher(canvasService, signalService, log)
	roomController := httpapi.NewRoomController(canvasService)
	socketController := httpapi.NewSocketController(sessionService, dispatcher, cfg.WebSocket, cfg.HTTP.AllowedOrigins, log)
	webrtcController := httpapi.NewWebRTCController(cfg.WebRTC.ICEServers())

	router := httpapi.SetupRouter(roomController, socketController, webrtcController, cfg.HTTP.AllowedOrigins)

	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	go func() {
		log.Info("starting application", slog.String("addr", cfg.HTTP.Address), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", sl.Err(err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", sl.Err(err))
		os.Exit(1)
	}
	log.Info("server stopped")
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
