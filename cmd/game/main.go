package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tatianab/mystic-stories/internal/app"
	"github.com/tatianab/mystic-stories/internal/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Printf("Error starting: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(); err != nil {
		a.Logger.Error("tui exited", "err", err)
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
