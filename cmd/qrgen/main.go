package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"comelec/internal/app"
	"comelec/internal/config"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", config.DefaultPath, "path to config yaml/json")
	flag.Parse()

	a, err := app.New(cfgPath)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.RunQR(context.Background()); err != nil {
		fmt.Println("fatal:", err)
		_ = a.Close()
		os.Exit(1)
	}
}
