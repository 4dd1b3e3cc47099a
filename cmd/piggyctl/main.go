package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"piggyctl/internal/ble"
	"piggyctl/internal/config"
	"piggyctl/internal/piggy"
	"piggyctl/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ~/.config/piggyctl/config.yaml)")
	autoScan := flag.Bool("auto-scan", false, "scan for devices on startup")
	acceptAll := flag.Bool("accept-all", false, "discover any device instead of filtering by name prefix")
	demo := flag.Bool("demo", false, "use a simulated peripheral instead of Bluetooth hardware")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}
	if *autoScan {
		cfg.Scan.AutoScan = true
	}
	if *acceptAll {
		cfg.Scan.NameFilter = ""
	}

	setupLogging(cfg.LogLevel)

	var adapter ble.Adapter
	if *demo {
		adapter = ble.NewDemoAdapter()
		slog.Info("running against a simulated peripheral")
	} else {
		adapter = ble.NewHardwareAdapter()
	}

	opts := piggy.DefaultOptions()
	opts.NameFilter = cfg.Scan.NameFilter
	opts.ScanTimeout = cfg.ScanTimeout()
	opts.CollectExtendedInfo = cfg.UI.CollectExtendedInfo

	ctrl := piggy.NewController(adapter, opts)
	defer ctrl.Close()

	model := tui.New(ctrl, tui.Options{
		AutoScan:             cfg.Scan.AutoScan,
		ShowDisconnectButton: cfg.UI.ShowDisconnectButton,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "piggyctl: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the config from the given path, or defaults when no file
// exists at the default location.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(defaultPath)
}

// setupLogging routes slog to a file: stderr belongs to the TUI.
func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	logPath := os.Getenv("PIGGYCTL_LOG")
	if logPath == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
		return
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
		return
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: lvl})))
}
