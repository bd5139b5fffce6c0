package main

import (
	"flag"
	"log"
	"os"

	"PriceWindow/internal/di"
	"PriceWindow/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	window := flag.String("window", "", "only refresh this window label, e.g. 15m")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if *window != "" {
		found := false
		for _, w := range cfg.Windows {
			if w == *window {
				found = true
				break
			}
		}
		if !found {
			log.Fatalf("window %q is not configured (have %v)", *window, cfg.Windows)
		}
		cfg.Windows = []string{*window}
	}

	log.Printf("env=%s windows=%v sources=%v strategy=%s",
		cfg.Environment, cfg.Windows, cfg.Sources.Order, cfg.Classifier.Strategy)

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	err = app.Run()
	cleanup()
	if err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
