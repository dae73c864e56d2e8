package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tatianab/mystic-stories/internal/app"
	"github.com/tatianab/mystic-stories/internal/config"
)

// Same as cmd/game, runnable with "go run ." from the repository root.
func main() {
	if err := start(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	a, err := app.New(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Run()
}
