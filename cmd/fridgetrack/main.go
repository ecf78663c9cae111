package main

import (
	"log"
	"log/slog"

	"github.com/akowalska/fridgetrack/internal/chef"
	claudechef "github.com/akowalska/fridgetrack/internal/chef/claude"
	ollamachef "github.com/akowalska/fridgetrack/internal/chef/ollama"
	"github.com/akowalska/fridgetrack/internal/config"
	"github.com/akowalska/fridgetrack/internal/db"
	"github.com/akowalska/fridgetrack/internal/logging"
	"github.com/akowalska/fridgetrack/internal/service"
	"github.com/akowalska/fridgetrack/internal/store"
	"github.com/akowalska/fridgetrack/internal/web"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	fridgeService := service.NewFridgeService(
		store.NewFridgeStore(database),
		store.NewItemStore(database),
		store.NewProductStore(database),
		store.NewHistoryStore(database),
		newSuggester(cfg, logger),
		logger,
	)
	server := web.NewServer(fridgeService, logger)

	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

func newSuggester(cfg *config.Config, logger *slog.Logger) chef.Suggester {
	switch cfg.ChefBackend {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			logger.Error("CLAUDE_API_KEY is required when CHEF_BACKEND=claude")
			return nil
		}
		logger.Info("using Claude chef backend")
		return claudechef.NewClaudeSuggester(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	case "none":
		logger.Info("recipe suggestions disabled")
		return nil
	default:
		logger.Info("using Ollama chef backend", "model", cfg.OllamaModel)
		return ollamachef.NewOllamaSuggester(cfg.OllamaHost, cfg.OllamaModel)
	}
}
