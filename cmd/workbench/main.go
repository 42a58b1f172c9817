// Command workbench serves the Game Manager over HTTP/WebSocket, the Go
// port's substitute for the original desktop app's in-process IPC surface.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/seekerror/logw"

	"github.com/franciscoBSalgueiro/chess-workbench/internal/api"
	"github.com/franciscoBSalgueiro/chess-workbench/internal/game"
)

func main() {
	ctx := context.Background()

	mgr := game.NewManager()
	router := api.NewRouter(mgr)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		logw.Infof(ctx, "starting chess workbench server on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logw.Errorf(ctx, "listen: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logw.Infof(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logw.Errorf(ctx, "server forced to shutdown: %v", err)
	}

	logw.Infof(ctx, "server exiting")
}
