package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/kringlelabs/kringle/pkg/kringle"
	"github.com/kringlelabs/kringle/pkg/runner"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	// Missing .env is fine; env vars may come from the environment.
	_ = godotenv.Load()

	cfg, err := kringle.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	runner.PrintBanner()

	engine, err := kringle.NewEngine(kringle.EngineOptions{Config: cfg})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := runner.SignalContext(context.Background())
	defer stop()

	if err := engine.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "serve: %v\n", err)
		os.Exit(1)
	}
}
