package main

import (
	"log"
	"os"

	"github.com/orbitcrm/assist/config"
	"github.com/orbitcrm/assist/internal/server"
)

func main() {
	cfg, err := config.Load(os.Getenv("ASSIST_CONFIG"))
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if addr := os.Getenv("ASSIST_HTTP_ADDR"); addr != "" {
		cfg.Server.Address = addr
	}

	if err := server.Run(cfg); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
