package core

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/methmouth/Robot/pkg/llm"
	anthropicLLM "github.com/methmouth/Robot/pkg/llm/anthropic"
	deepseekLLM "github.com/methmouth/Robot/pkg/llm/deepseek"
	ollamaLLM "github.com/methmouth/Robot/pkg/llm/ollama"
	openaiLLM "github.com/methmouth/Robot/pkg/llm/openai"
	"github.com/methmouth/Robot/pkg/oracle"
	"github.com/methmouth/Robot/pkg/storage"
	fileStore "github.com/methmouth/Robot/pkg/storage/file"
	"github.com/methmouth/Robot/pkg/storage/oceanbase"
	postgresStore "github.com/methmouth/Robot/pkg/storage/postgres"
	sqliteStore "github.com/methmouth/Robot/pkg/storage/sqlite"
)

// NewOracleFromConfig builds an LLM-backed oracle for cfg.
func NewOracleFromConfig(cfg LLMConfig, logger *zap.Logger) (*oracle.LLMOracle, error) {
	provider, err := initLLM(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return oracle.NewLLMOracle(provider, oracle.WithLogger(logger)), nil
}

// NewStoreFromConfig opens the snapshot store selected by cfg.
func NewStoreFromConfig(cfg StoreConfig) (storage.SnapshotStore, error) {
	store, err := initStorage(cfg)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// initStorage initializes the snapshot store.
func initStorage(cfg StoreConfig) (storage.SnapshotStore, error) {
	switch cfg.Provider {
	case "file":
		return fileStore.NewStore(&fileStore.Config{Path: cfg.File.Path})
	case "sqlite":
		return sqliteStore.NewStore(&sqliteStore.Config{
			DBPath:      cfg.SQLite.Path,
			TablePrefix: cfg.SQLite.TablePrefix,
		})
	case "postgres":
		return postgresStore.NewStore(&postgresStore.Config{
			Host:        cfg.Postgres.Host,
			Port:        cfg.Postgres.Port,
			User:        cfg.Postgres.User,
			Password:    cfg.Postgres.Password,
			DBName:      cfg.Postgres.DBName,
			SSLMode:     cfg.Postgres.SSLMode,
			TablePrefix: cfg.Postgres.TablePrefix,
		})
	case "oceanbase":
		return oceanbase.NewStore(&oceanbase.Config{
			Host:        cfg.OceanBase.Host,
			Port:        cfg.OceanBase.Port,
			User:        cfg.OceanBase.User,
			Password:    cfg.OceanBase.Password,
			DBName:      cfg.OceanBase.DBName,
			TablePrefix: cfg.OceanBase.TablePrefix,
		})
	default:
		return nil, NewEngineError("initStorage", fmt.Errorf("%w: store provider %q", ErrInvalidConfig, cfg.Provider))
	}
}

// initLLM initializes the LLM provider.
func initLLM(cfg LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "openai":
		return openaiLLM.NewClient(&openaiLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "deepseek":
		return deepseekLLM.NewClient(&deepseekLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "ollama":
		return ollamaLLM.NewClient(&ollamaLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "anthropic":
		return anthropicLLM.NewClient(&anthropicLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	default:
		return nil, NewEngineError("initLLM", fmt.Errorf("%w: oracle provider %q", ErrInvalidConfig, cfg.Provider))
	}
}
