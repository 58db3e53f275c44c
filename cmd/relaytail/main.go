// Package main is the entry point for relaytail, a small utility that
// watches paths and prints the file events flowing through a relay channel.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/relaykit/relay"
	"github.com/relaykit/relay/watch"
)

// Version information (set via ldflags during build).
var version = "dev"

// config is the TOML file format:
//
//	channel = "files"
//	paths = ["/etc", "/tmp"]
//	debounce_ms = 200
type config struct {
	Channel    string   `toml:"channel"`
	Paths      []string `toml:"paths"`
	DebounceMS int      `toml:"debounce_ms"`
}

func defaultConfig() config {
	return config{Paths: []string{"."}}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(cfg.Paths) == 0 {
		cfg.Paths = []string{"."}
	}
	return cfg, nil
}

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "relaytail.toml", "path to TOML config")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("relaytail", version)
		return 0
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	emitter := relay.New(relay.WithChannel(cfg.Channel))
	if _, err := emitter.OnAll(printEvent); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	bridge, err := watch.New(emitter,
		watch.WithDebounce(time.Duration(cfg.DebounceMS)*time.Millisecond))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create watcher: %v\n", err)
		return 1
	}
	defer bridge.Stop()

	for _, path := range cfg.Paths {
		if err := bridge.Add(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot watch %s: %v\n", path, err)
			return 1
		}
	}
	if err := bridge.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals
	return 0
}

func printEvent(eventType string, event any) error {
	switch ev := event.(type) {
	case watch.Event:
		fmt.Printf("%s %s %s\n", ev.Time.Format(time.RFC3339), eventType, ev.Path)
	case error:
		fmt.Fprintf(os.Stderr, "watch error: %v\n", ev)
	default:
		fmt.Printf("%s %v\n", eventType, event)
	}
	return nil
}
