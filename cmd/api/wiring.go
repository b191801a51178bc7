package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/bryanwahyu/policylens/internal/application"
	appanalysis "github.com/bryanwahyu/policylens/internal/application/analysis"
	"github.com/bryanwahyu/policylens/internal/config"
	domain "github.com/bryanwahyu/policylens/internal/domain/analysis"
	"github.com/bryanwahyu/policylens/internal/infra/ai/langchain"
	"github.com/bryanwahyu/policylens/internal/infra/ai/openai"
	"github.com/bryanwahyu/policylens/internal/infra/ai/prompt"
	"github.com/bryanwahyu/policylens/internal/infra/ai/rest"
	mysqlp "github.com/bryanwahyu/policylens/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/policylens/internal/infra/db/postgres"
	minioStore "github.com/bryanwahyu/policylens/internal/infra/storage"
	"github.com/bryanwahyu/policylens/internal/middleware"
)

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newCompleter picks the chat client named by llm.client.
func newCompleter(cfg *config.Config) (domain.ChatCompleter, error) {
	switch cfg.LLM.Client {
	case config.ClientSDK, "":
		return openai.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout), nil
	case config.ClientHTTP:
		return rest.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout), nil
	case config.ClientLangchain:
		return langchain.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown llm client %q", cfg.LLM.Client)
	}
}

// archive bundles whatever archive.driver opened.
type archive struct {
	store    domain.Archive
	lister   domain.Lister
	checkers map[string]middleware.Checker
	close    func() error
}

func openArchive(ctx context.Context, cfg *config.Config) (*archive, error) {
	a := &archive{
		checkers: map[string]middleware.Checker{},
		close:    func() error { return nil },
	}

	switch cfg.Archive.Driver {
	case config.ArchiveNone, "":
		return a, nil

	case config.ArchiveMySQL:
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, err
		}
		repo := mysqlp.NewArchiveRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("mysql schema: %w", err)
		}
		a.useSQL(db, repo)
		return a, nil

	case config.ArchivePostgres:
		db, err := pgp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, err
		}
		repo := pgp.NewArchiveRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		a.useSQL(db, repo)
		return a, nil

	case config.ArchiveMinio:
		m := cfg.Archive.Minio
		store, err := minioStore.New(ctx, m.Endpoint, m.Region, m.BucketName, m.AccessKey, m.SecretKey, m.UseSSL)
		if err != nil {
			return nil, fmt.Errorf("minio init: %w", err)
		}
		a.store = store
		a.checkers["minio"] = store
		return a, nil

	default:
		return nil, fmt.Errorf("unknown archive driver %q", cfg.Archive.Driver)
	}
}

// sqlArchive is what both SQL repositories provide.
type sqlArchive interface {
	domain.Archive
	domain.Lister
	middleware.Checker
}

func (a *archive) useSQL(db *sql.DB, repo sqlArchive) {
	a.store = repo
	a.lister = repo
	a.checkers["database"] = repo
	a.close = db.Close
}

func newService(cfg *config.Config, client domain.ChatCompleter, logger *slog.Logger) *appanalysis.Service {
	return &appanalysis.Service{
		Client: client,
		Prompt: prompt.GetSystemPrompt,
		Clock:  application.SystemClock{},
		Logger: logger,
		Options: appanalysis.Options{
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		},
	}
}
