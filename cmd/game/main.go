package main

import (
	"flag"
	"os"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/Ship-Sense/internal/config"
	"github.com/Garsondee/Ship-Sense/internal/game"
)

func main() {
	configPath := flag.String("config", "configs/tuning.yaml", "YAML tuning file, reloaded on save")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	seed := flag.Int64("seed", 1, "simulation RNG seed")
	allies := flag.Int("allies", 6, "allied ships at start")
	hostiles := flag.Int("hostiles", 6, "hostile ships at start")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "ship-sense", ReportTimestamp: true})
	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		logger.Fatal("bad -log-level", "value", *logLevel, "err", err)
	}
	logger.SetLevel(level)

	cfg, err := config.Load(*configPath)
	watchPath := *configPath
	if err != nil {
		logger.Warn("using default tuning", "path", *configPath, "err", err)
		cfg = config.Default()
		watchPath = ""
	}

	g := game.New(game.Options{
		Config:     cfg,
		ConfigPath: watchPath,
		Seed:       *seed,
		Allies:     *allies,
		Hostiles:   *hostiles,
		Logger:     logger,
	})
	defer g.Close()

	ebiten.SetWindowTitle("Ship Sense")
	ebiten.SetWindowSize(g.WindowSize())
	if err := ebiten.RunGame(g); err != nil {
		logger.Error("game exited", "err", err)
		os.Exit(1)
	}
}
