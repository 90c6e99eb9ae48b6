// Package main is the entry point for the fcbtool API server
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/james-see/fcbtool/pkg/api"
	"github.com/james-see/fcbtool/pkg/config"
	"github.com/james-see/fcbtool/pkg/converter"
)

func main() {
	configPath := flag.String("config", "", "Settings file (default ~/.config/fcbtool/config.yaml)")
	port := flag.Int("port", 0, "Server port (default from settings)")
	cc2 := flag.Bool("cc2-columns", false, "Map CSV columns 15-17 to controller 2 by default")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	settings, err := loadSettings(*configPath)
	if err != nil {
		logger.Error("failed to load settings", "error", err)
		os.Exit(1)
	}
	if *port != 0 {
		settings.ServerPort = *port
	}
	if *cc2 {
		settings.Controller2Columns = true
	}
	if settings.Controller2Columns {
		logger.Warn(converter.Controller2Warning)
	}

	fmt.Printf("Starting fcbtool API server on port %d...\n", settings.ServerPort)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", settings.ServerPort)

	opts := api.Options{
		Controller2Columns: settings.Controller2Columns,
		Logger:             logger,
	}
	if err := api.StartServer(settings.ServerPort, opts); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func loadSettings(path string) (*config.Settings, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}
