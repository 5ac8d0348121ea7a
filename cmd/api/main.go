package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/app"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/config"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/logs"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		<-c
		cancel()
	}()

	cfg := config.LoadConfig()
	logs.Init(logs.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		logs.Logger.Fatalf("startup failed: %v", err)
	}
	defer application.Close()

	go application.Server.Start()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := application.Server.Shutdown(shutdownCtx); err != nil {
		logs.Logger.Errorf("shutdown error: %v", err)
	}
}
