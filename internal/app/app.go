package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/markdave123-py/dreammend/internal/api/handlers"
	"github.com/markdave123-py/dreammend/internal/auth"
	"github.com/markdave123-py/dreammend/internal/config"
	"github.com/markdave123-py/dreammend/internal/core"
	db "github.com/markdave123-py/dreammend/internal/core/database"
	"github.com/markdave123-py/dreammend/internal/core/indexer"
	"github.com/markdave123-py/dreammend/internal/core/llm"
	"github.com/markdave123-py/dreammend/internal/core/mailer"
	objectclient "github.com/markdave123-py/dreammend/internal/core/object-client"
	"github.com/markdave123-py/dreammend/internal/ratelimit"
	"github.com/markdave123-py/dreammend/internal/services"
)

type App struct {
	DBClient *db.DatabaseClient
	Indexer  *indexer.DreamIndexer
	Server   *Server

	cfg     *config.Config
	logger  *slog.Logger
	closers []func() error
}

func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	a.DBClient = dbClient
	a.closers = append(a.closers, dbClient.Close)
	logger.Info("database initialized and ready")

	// Image uploads are optional; without storage they fail with 502.
	var objects core.ObjectClient
	if s3c, err := objectclient.NewS3Client(appCtx, cfg, logger); err != nil {
		logger.Warn("object storage disabled", slog.Any("err", err))
	} else {
		objects = s3c
	}

	responder, err := llm.NewGeminiResponder(appCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("couldn't initialize the responder: %w", err)
	}
	a.closers = append(a.closers, responder.Close)

	var idx services.Indexer
	if cfg.EmbedModel != "" && cfg.AIAPIKey != "" {
		embedder, err := llm.NewDreamEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("couldn't initialize the embedder: %w", err)
		}
		a.closers = append(a.closers, embedder.Close)
		a.Indexer = indexer.NewDreamIndexer(dbClient, embedder, logger)
		idx = a.Indexer
	} else {
		logger.Info("dream indexing disabled, EMBED_MODEL or GEMINI_API_KEY not set")
	}

	var limiter services.RateLimiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(appCtx).Err(); err != nil {
			logger.Warn("redis unreachable, limiter will fail open", slog.Any("err", err))
		}
		a.closers = append(a.closers, rdb.Close)
		limiter = ratelimit.NewRedisLimiter(rdb, logger, "messages", cfg.MessageRate, cfg.MessageBurst)
	}

	m := mailer.NewSMTPMailer(cfg, logger)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)

	migrator := services.NewMigrationService(dbClient, idx, logger)
	summaries := services.NewSummaryService(dbClient, migrator, logger)
	chats := services.NewChatService(dbClient, responder, summaries, migrator, limiter, logger)
	users := services.NewUserService(dbClient, auth.NewBcryptHasher(0), tokens, m, logger)
	profiles := services.NewProfileService(dbClient, objects, m, logger)
	entries := services.NewDreamEntryService(dbClient, idx, logger)

	a.Server = NewServer(cfg, logger, Routes{
		Auth:        handlers.NewAuthHandler(users, logger),
		Profile:     handlers.NewProfileHandler(profiles, logger),
		Chat:        handlers.NewChatHandler(chats, logger),
		Summary:     handlers.NewSummaryHandler(summaries, migrator, logger),
		DreamEntry:  handlers.NewDreamEntryHandler(entries, logger),
		Tokens:      tokens,
		Health:      dbClient,
		CORSOrigins: cfg.CORSOrigins,
	})

	return a, nil
}

// RunIndexer blocks running the background indexer until ctx ends. It
// returns immediately when indexing is disabled.
func (a *App) RunIndexer(ctx context.Context) error {
	if a.Indexer == nil {
		return nil
	}
	return a.Indexer.Run(ctx, a.cfg.IndexerWorkers)
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", slog.Any("err", err))
		}
	}
	a.closers = nil
}
