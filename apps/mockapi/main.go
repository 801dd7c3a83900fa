package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trezcool/niva/apps/mockapi/echo"
	"github.com/trezcool/niva/services/logger"
)

func main() {
	addr := os.Getenv("MOCKAPI_ADDR")
	if addr == "" {
		addr = ":8000"
	}
	std := log.New(os.Stdout, "MOCKAPI : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	srv := echoapi.NewServer(&echoapi.Options{
		Address:      addr,
		SecretKey:    os.Getenv("MOCKAPI_SECRET_KEY"),
		Debug:        os.Getenv("MOCKAPI_DEBUG") != "",
		Logger:       logsvc.NewStdLogger(std, true),
		BulkFeedback: os.Getenv("MOCKAPI_BULK_FEEDBACK") != "",
	})
	if os.Getenv("MOCKAPI_NO_SEED") == "" {
		if err := echoapi.SeedDemo(srv.DB()); err != nil {
			std.Fatalf("seeding demo data: %v", err)
		}
	}

	// Start server
	serverErrors := make(chan error, 1)
	go func() {
		std.Printf("main : API listening on %s", addr)
		serverErrors <- srv.Start()
	}()

	// Shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			std.Fatalf("main : server error: %v", err)
		}
	case sig := <-shutdown:
		std.Printf("main : %v : start shutdown", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			std.Printf("main : graceful shutdown failed: %v", err)
		}
	}
}
