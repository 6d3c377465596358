package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"comelec/internal/app"
	"comelec/internal/config"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", config.DefaultPath, "path to config yaml/json")
	flag.Parse()

	// Watch mode runs until interrupted.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfgPath)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.RunTally(ctx); err != nil {
		fmt.Println("fatal:", err)
		_ = a.Close()
		os.Exit(1)
	}
}
