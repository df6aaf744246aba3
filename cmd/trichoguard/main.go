package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/ayusman/trichoguard/internal/app"
	"github.com/ayusman/trichoguard/internal/audio"
	"github.com/ayusman/trichoguard/internal/config"
	"github.com/ayusman/trichoguard/internal/logging"
	"github.com/ayusman/trichoguard/internal/server"
	"github.com/ayusman/trichoguard/internal/store"
	"github.com/ayusman/trichoguard/internal/tray"
)

func main() {
	mode := flag.String("mode", "", "detection mode: strict, normal or relaxed")
	noTray := flag.Bool("no-tray", false, "run without the system tray")
	logLevel := flag.String("log-level", "", "override the configured log level")
	flag.Parse()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get home directory: %v\n", err)
		os.Exit(1)
	}

	dataDir := filepath.Join(homeDir, ".trichoguard")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create data directory: %v\n", err)
		os.Exit(1)
	}

	configPath := filepath.Join(dataDir, "config.toml")
	cfg, cfgErr := config.Load(configPath)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := cfg.Save(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write default config: %v\n", err)
		}
	}

	if *mode != "" {
		if err := cfg.ApplyMode(*mode); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		LogDir: dataDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	if cfgErr != nil {
		logger.Warn("config file unreadable, using defaults", slog.Any("error", cfgErr))
	}

	// Single instance: a second copy would fight over the camera and
	// the audio device.
	lock := flock.New(filepath.Join(dataDir, "trichoguard.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		logger.Error("instance lock failed", slog.Any("error", err))
		os.Exit(1)
	}
	if !locked {
		logger.Error("another instance is already running")
		os.Exit(1)
	}
	defer lock.Unlock()

	st, err := store.New(filepath.Join(dataDir, "trichoguard.db"))
	if err != nil {
		logger.Error("failed to open store", slog.Any("error", err))
		os.Exit(1)
	}
	defer st.Close()

	synth := audio.NewGoogleTTS(cfg.Audio.Language)
	player := audio.NewExecPlayer()
	cache, err := audio.NewCache(filepath.Join(dataDir, "audio"), cfg.CacheLimitBytes(),
		synth, player, logging.Component(logger, "audio"))
	if err != nil {
		logger.Error("failed to open audio cache", slog.Any("error", err))
		os.Exit(1)
	}
	if err := cache.Cleanup(); err != nil {
		logger.Warn("audio cache cleanup", slog.Any("error", err))
	}
	cache.EnforceLimit()

	phrases, err := audio.LoadPhrases(filepath.Join(dataDir, "phrases.json"))
	if err != nil {
		logger.Error("failed to load phrases", slog.Any("error", err))
		os.Exit(1)
	}

	stock, err := audio.NewStockPool(filepath.Join(dataDir, "stock_audio"))
	if err != nil {
		logger.Error("failed to open stock audio", slog.Any("error", err))
		os.Exit(1)
	}

	application := app.New(app.Options{
		Config:  cfg,
		Store:   st,
		Cache:   cache,
		Phrases: phrases,
		Stock:   stock,
		Logger:  logger,
	})

	if err := application.Start(); err != nil {
		logger.Error("failed to start pipeline", slog.Any("error", err))
		os.Exit(1)
	}
	application.SetEnabled(true)

	srv := server.New(server.Config{
		StaticDir: findWebDir(),
		Store:     st,
		Pipeline:  application,
		Logger:    logging.Component(logger, "server"),
	})
	go func() {
		logger.Info("dashboard listening", slog.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(cfg.Server.Addr); err != nil {
			logger.Error("server failed", slog.Any("error", err))
		}
	}()

	if *noTray {
		runHeadless(application, logger)
		return
	}

	runTray(application, st, logger, dashboardURL(cfg.Server.Addr))
}

// runHeadless blocks until an interrupt, then stops the pipeline.
func runHeadless(application *app.App, logger *slog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down")
	application.Stop()
}

// runTray wires the tray menu to the pipeline and blocks until quit.
func runTray(application *app.App, st *store.Store, logger *slog.Logger, dashURL string) {
	t := tray.New()

	t.OnToggle(application.SetEnabled)
	t.OnDashboard(func() {
		if err := openBrowser(dashURL); err != nil {
			logger.Warn("open dashboard", slog.Any("error", err))
		}
	})
	t.OnQuit(func() {
		logger.Info("shutting down")
		application.Stop()
	})

	// Keep the today counter fresh.
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			count, err := st.Triggers().TodayCount(time.Now())
			if err == nil {
				t.SetTodayCount(count)
			}
			<-ticker.C
		}
	}()

	// Interrupts quit the tray loop cleanly too.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		application.Stop()
		t.Quit()
	}()

	t.Run()
}

// dashboardURL builds a browsable URL from the listen address.
func dashboardURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// findWebDir searches for the dashboard static files in common
// locations. Returns the first existing directory or empty string.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".trichoguard", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
