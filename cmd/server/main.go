package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"hanyang/handlers"
	"hanyang/internal/ai"
	"hanyang/internal/app"
	"hanyang/internal/auth"
	"hanyang/internal/database"
	"hanyang/internal/game"
	"hanyang/internal/network"
	"hanyang/pkg/config"
	"hanyang/pkg/logger"
)

var (
	addr       = flag.String("addr", "", "http service address (overrides config)")
	configFile = flag.String("config", "config.yml", "path to config file")
	logLevel   = flag.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	showCaller = flag.Bool("show-caller", false, "show caller information in logs")
	dataDir    = flag.String("data-dir", "", "directory for the database and backups (overrides config)")
)

func main() {
	flag.Parse()

	// .env feeds the HANYANG_* overrides resolved during config load.
	godotenv.Load()

	serverLogger := logger.ServerLogger

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		serverLogger.Fatal("Failed to load configuration: %v", err)
	}
	if _, statErr := os.Stat(*configFile); statErr == nil {
		serverLogger.Info("Loaded configuration from %s", *configFile)
	} else {
		serverLogger.Info("Config file %s not found, using defaults", *configFile)
	}

	applyFlagOverrides(cfg)

	level := logger.ParseLevel(cfg.Logging.Level)
	logger.InitLoggers(level, cfg.Logging.ShowCaller)

	serverLogger.Info("Starting Hanyang Game Server on %s", cfg.GetAddr())
	serverLogger.Info("Environment: %s", cfg.Server.Environment)

	// Database, migrations, repositories.
	dbConfig := &database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxConnections,
		MaxIdleConns:    cfg.Database.MaxIdleConnections,
		ConnMaxLifetime: 5 * time.Minute,
		MigrateOnStart:  true,
	}
	db, err := database.NewConnection(dbConfig)
	if err != nil {
		serverLogger.Fatal("Failed to initialize database: %v", err)
	}
	defer db.Close()

	repo := database.NewRepository(db)

	backups := database.NewBackupManager(db, &database.BackupConfig{
		BackupDir:      cfg.Database.BackupDir,
		MaxBackups:     cfg.Database.MaxBackups,
		AutoBackup:     cfg.Database.BackupInterval > 0,
		BackupInterval: cfg.Database.BackupInterval,
	})
	backups.Start()
	defer backups.Stop()

	maintainer := database.NewMaintainer(db, cfg.Database.MaintenanceInterval)
	maintainer.Start()
	defer maintainer.Stop()

	// Engine and its collaborators.
	hub := network.NewHub(cfg.WebSocket)
	decider := ai.NewDecisionEngine(0)
	engine := game.NewEngine(game.DefaultRules(), repo.Games, hub, decider, game.Options{
		TotalRounds:      cfg.Game.TotalRounds,
		AutoPlayMaxTurns: cfg.Game.AutoPlayMaxTurns,
		AIThinkDelay:     cfg.Game.AIThinkDelay,
	})

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)

	srv := app.NewServer(cfg, db, verifier, app.Handlers{
		Game: handlers.NewGameHandler(engine, cfg.Game.ActionTimeout),
		WS:   handlers.NewWSHandler(hub, engine, verifier, cfg.Game.ActionTimeout),
		DB:   handlers.NewDBHandler(db, repo, backups, maintainer, hub),
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			serverLogger.Fatal("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	serverLogger.Info("Received shutdown signal: %v", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	serverLogger.Info("Shutting down server...")
	if err := srv.Shutdown(ctx); err != nil {
		serverLogger.Warn("Server forced to shutdown: %v", err)
	}
	hub.Shutdown()

	serverLogger.Info("Server gracefully stopped")
}

// applyFlagOverrides lets command-line flags win over file and
// environment values.
func applyFlagOverrides(cfg *config.Config) {
	if *addr != "" {
		host, portStr, err := net.SplitHostPort(*addr)
		if err != nil {
			logger.ServerLogger.Fatal("Invalid -addr %q: %v", *addr, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			logger.ServerLogger.Fatal("Invalid port in -addr %q: %v", *addr, err)
		}
		cfg.Server.Host = host
		cfg.Server.Port = port
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *showCaller {
		cfg.Logging.ShowCaller = true
	}
	if *dataDir != "" {
		cfg.Database.Path = filepath.Join(*dataDir, "hanyang.db")
		cfg.Database.BackupDir = filepath.Join(*dataDir, "backups")
	}
}
