package main

import (
	"log"
	"os"

	"github.com/andreyxaxa/Image-Admin-Panel/config"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/app"
	"github.com/joho/godotenv"
)

func main() {
	// Config
	if _, err := os.Stat(".env"); err == nil {
		err = godotenv.Load()
		if err != nil {
			log.Fatalf("config error: %s", err)
		}
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}

	warnings, err := cfg.Validate()
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}
	for _, w := range warnings {
		log.Printf("Config warning: %s", w)
	}

	// Run
	app.Run(cfg)
}
