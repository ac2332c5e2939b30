/*
Package main is the entry point for the tcpchat server.

It loads configuration, initializes the global logging system, starts the
actor core (user registry, room registry, command router, broadcaster),
opens the TCP chat listener and the HTTP ops API, and handles operating
system interrupt signals (SIGINT, SIGTERM) for a clean exit.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tcpchat/internal/app/chat"
	"tcpchat/internal/configs"
	"tcpchat/internal/handler"
	"tcpchat/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Int("ops_port", cfg.OpsPort).
		Dur("handshake_timeout", cfg.HandshakeTimeout).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start the actor core. The registries and the router run for the
	// process lifetime; process exit is the only teardown path.
	broadcaster := chat.NewBroadcaster(cfg.BroadcastBuffer)
	users := chat.NewUserRegistry(broadcaster, cfg.CommandBuffer, cfg.MailboxBuffer)
	rooms := chat.NewRoomRegistry(users, broadcaster, cfg.CommandBuffer)
	router := chat.NewCommandRouter(users, rooms, broadcaster, cfg.CommandBuffer)

	go users.Run()
	go rooms.Run()
	go router.Run()

	// Ops API server
	opsRouter := handler.Router(&handler.OpsDeps{
		Config:      cfg,
		Users:       users,
		Rooms:       rooms,
		Broadcaster: broadcaster,
	})

	opsServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.OpsPort),
		Handler:      opsRouter,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Ops API listening on http://localhost%s", opsServer.Addr))
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Ops server failed to start")
		}
	}()

	// Chat TCP server
	tcpServer := handler.NewTCPServer(fmt.Sprintf(":%d", cfg.Port), router, users, broadcaster, cfg)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- tcpServer.ListenAndServe(ctx)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logx.Fatal(err, "Chat server failed")
		}
	case <-ctx.Done():
		logx.Info("Received shutdown signal. Starting graceful shutdown...")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Ops server forced to shutdown")
	}

	logx.Info("Server stopped.")
}
