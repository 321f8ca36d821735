package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"EEOS-client/internal/platform/config"
	"EEOS-client/internal/server"
)

// main runs the reference EEOS backend the client talks to.
func main() {
	path := flag.String("config", config.DefaultConfigPath, "path to config.yaml")
	flag.Parse()

	cfg, err := config.LoadConfig(*path)
	if err != nil {
		config.Exitf("load config: %v", err)
	}
	log.Printf("[INFO] mode:%s store:%s", cfg.Mode, cfg.Server.Store)

	stores, conn, err := server.OpenStores(cfg.Server)
	if err != nil {
		config.Exitf("open stores: %v", err)
	}
	if conn != nil {
		defer conn.Close()
		log.Printf("[INFO] connected to DB: %s", cfg.Server.DB.DBName)
	}

	authSvc := server.NewAuthService(cfg.Server, stores.Auth)
	r := server.NewRouter(cfg.Mode, cfg.Server, authSvc, stores)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		var err error
		if cfg.Mode == config.ModeRelease {
			log.Printf("[INFO] listening on https://%s", cfg.Server.Addr)
			err = srv.ListenAndServeTLS(cfg.Server.Certificate.Cert, cfg.Server.Certificate.Key)
		} else {
			log.Printf("[INFO] listening on http://%s", cfg.Server.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[ERROR] serve: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("[INFO] shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
