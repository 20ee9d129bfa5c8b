package main

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/arfandy/coup-server/internal/archive"
	"github.com/arfandy/coup-server/internal/config"
	"github.com/arfandy/coup-server/internal/handler"
	"github.com/arfandy/coup-server/internal/logger"
	"github.com/arfandy/coup-server/internal/middleware"
	"github.com/arfandy/coup-server/internal/service"
)

const sweepInterval = 5 * time.Minute

func main() {
	logger.Init()
	cfg := config.Load()
	log.Info().Str("port", cfg.Port).Dur("roomIdleTTL", cfg.RoomIdleTTL).Msg("Config loaded")

	// Archive (optional)
	var recorder service.Recorder
	if cfg.RedisURL != "" {
		arc, err := archive.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Redis connection failed")
		}
		defer arc.Close()
		recorder = arc
		log.Info().Msg("Result archive enabled")
	}

	// WebSocket hub
	wsHub := handler.NewHub()

	// Room manager
	rooms := service.NewRoomManager(wsHub, recorder, randomSeed())

	// Handlers
	gameHandler := handler.NewGameHandler(rooms)
	wsHandler := handler.NewWSHandler(wsHub)

	// Router
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", gameHandler.Health)
	mux.HandleFunc("POST /matchmake", gameHandler.Matchmake)
	mux.HandleFunc("GET /state", gameHandler.State)
	mux.HandleFunc("POST /action", gameHandler.Action)
	mux.HandleFunc("POST /quit", gameHandler.Quit)
	mux.HandleFunc("GET /ws", wsHandler.ServeWS)

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Logger, middleware.CORS(cfg.AllowedOrigins), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Idle room sweeper
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rooms.Sweep(ctx, sweepInterval, cfg.RoomIdleTTL)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}

// randomSeed draws a crypto-quality seed for the per-room deck rngs.
func randomSeed() int64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]) &^ (1 << 63))
}
