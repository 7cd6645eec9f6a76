package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/ruring/internal/bus"
	"github.com/jask/ruring/internal/config"
	"github.com/jask/ruring/internal/logging"
	"github.com/jask/ruring/internal/ring"
	"github.com/jask/ruring/internal/tui"
)

func main() {
	printConfig := flag.Bool("print-config", false, "print the effective configuration as TOML and exit")
	version := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *version {
		fmt.Println("ruring v" + tui.Version)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *printConfig {
		if err := config.Dump(os.Stdout, cfg); err != nil {
			log.Fatalf("config: %v", err)
		}
		return
	}

	logger, closer, err := logging.Open(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		log.Fatalf("log: %v", err)
	}
	defer closer.Close()

	conn, err := bus.Dial(cfg.Bus.Address, cfg.Bus.Destination, cfg.Bus.SignalBuffer, logger.With("component", "bus"))
	if err != nil {
		log.Fatalf("bus: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := tui.NewNotifier(cfg.Bus.SignalBuffer)
	manager, err := ring.New(ctx, conn,
		ring.WithEndpoints(ring.Endpoints{
			ConfigurationPath:      cfg.Bus.ConfigurationPath,
			ConfigurationInterface: cfg.Bus.ConfigurationInterface,
			CallPath:               cfg.Bus.CallPath,
			CallInterface:          cfg.Bus.CallInterface,
		}),
		ring.WithTimeout(cfg.Bus.Timeout),
		ring.WithLogger(logger.With("component", "ring")),
		ring.WithNotifier(notifier.Notify),
	)
	if err != nil {
		log.Fatalf("ring: %v", err)
	}

	var opts []tea.ProgramOption
	if cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(tui.New(ctx, manager, cfg), opts...)
	notifier.Attach(p)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := manager.HandleSignals(ctx, conn); err != nil {
			logger.Error("signal loop stopped", "err", err)
		}
	}()

	logger.Info("started", "version", tui.Version, "destination", cfg.Bus.Destination)
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
	cancel()
	<-done
	notifier.Close()
}
