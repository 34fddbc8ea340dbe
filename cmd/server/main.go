package main

import (
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"rcsquiz/internal/config"
	"rcsquiz/internal/serverapp"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := log.Default()
	handler, err := serverapp.NewHandler(serverapp.Options{
		Config: cfg,
		Logger: logger,
	})
	if err != nil {
		log.Fatalf("build server: %v", err)
	}

	srv := &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	logger.Printf("rcsquiz listening on http://%s", cfg.ServerAddr())
	log.Fatal(srv.ListenAndServe())
}
