// cmd/agri-officer/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"agri-officer/internal/common/config"
	"agri-officer/internal/common/database"
	"agri-officer/internal/common/logger"
	"agri-officer/internal/common/observability"
	"agri-officer/internal/diagnosis"
	"agri-officer/internal/llm"
	"agri-officer/internal/orchestrator"
	"agri-officer/internal/retrieval"
	"agri-officer/internal/server"
	"agri-officer/internal/tools"
	"agri-officer/internal/tools/calendar"
	"agri-officer/internal/tools/market"
	"agri-officer/internal/tools/weather"
)

// retryWithBackoff attempts to execute a function with exponential backoff.
// Used only during startup; the request path never retries.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	zapLog.Info("Starting agriculture officer service...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	obs := observability.New("agri-officer")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- LLM client ---
	completer := llm.NewClient(&llm.Config{
		BaseURL: cfg.APIs.LLM.BaseURL,
		APIKey:  cfg.APIs.LLM.APIKey,
		Model:   cfg.APIs.LLM.Model,
		Timeout: config.GetDuration(cfg.APIs.LLM.Timeout),
	}, log)

	// --- Redis weather cache (optional) ---
	var weatherCache weather.Cache
	if cfg.Database.Redis.Address != "" {
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("Redis unavailable, weather caching disabled", zap.Error(err))
		} else {
			defer redis.Close()
			weatherCache = redis
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- PostgreSQL crop calendar (optional) ---
	var calendarResolver tools.CalendarResolver
	if cfg.Database.Postgres.Host != "" {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Warn("PostgreSQL unavailable, crop calendar disabled", zap.Error(err))
		} else {
			defer pg.Close()
			calendarResolver = calendar.NewResolver(pg.GetDB(), log)
			zapLog.Info("PostgreSQL connected successfully")
		}
	}
	if calendarResolver == nil {
		calendarResolver = calendar.Unavailable{}
	}

	// --- Tool resolvers ---
	weatherCfg := weather.LoadConfig()
	weatherCfg.APIKey = cfg.APIs.Weather.APIKey
	weatherCfg.CacheTTL = time.Duration(cfg.APIs.Weather.CacheTTL) * time.Second
	if cfg.APIs.Weather.BaseURL != "" {
		weatherCfg.BaseURL = cfg.APIs.Weather.BaseURL
	}
	if cfg.APIs.Weather.Timeout > 0 {
		weatherCfg.Timeout = config.GetDuration(cfg.APIs.Weather.Timeout)
	}
	weatherResolver := weather.NewResolver(weatherCfg, weatherCache, log)

	marketCfg := market.LoadConfig()
	marketCfg.APIKey = cfg.APIs.Market.APIKey
	if cfg.APIs.Market.BaseURL != "" {
		marketCfg.BaseURL = cfg.APIs.Market.BaseURL
	}
	if cfg.APIs.Market.Timeout > 0 {
		marketCfg.Timeout = config.GetDuration(cfg.APIs.Market.Timeout)
	}
	marketResolver := market.NewResolver(market.NewHTTPSource(marketCfg), log)

	dispatcher := tools.NewDispatcher(weatherResolver, marketResolver, calendarResolver, log)

	// --- Knowledge retrieval (optional, degrades to absent context) ---
	var retriever orchestrator.ContextRetriever
	if cfg.Retrieval.Enabled {
		retriever = buildRetriever(ctx, cfg, log, zapLog)
	}

	orch := orchestrator.New(completer, dispatcher, retriever, tools.Definitions(), log)

	// --- Diagnosis pipeline ---
	classifier := diagnosis.NewHTTPClassifier(diagnosis.ClassifierConfig{
		BaseURL: cfg.APIs.Classifier.BaseURL,
		Timeout: config.GetDuration(cfg.APIs.Classifier.Timeout),
	}, log)
	advisor := diagnosis.NewAdvisor(classifier, completer, log)

	// --- HTTP server ---
	srv := server.New(cfg.Server, orch, advisor, obs, log).HTTPServer()

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zapLog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}
	zapLog.Info("Shutdown complete")
}

// buildRetriever wires the embedding client and the vector index. Any
// failure here leaves retrieval off rather than blocking startup.
func buildRetriever(ctx context.Context, cfg *config.Config, log logger.Logger, zapLog *zap.Logger) orchestrator.ContextRetriever {
	embedder, err := retrieval.NewGeminiEmbedder(ctx, cfg.APIs.Embedding.APIKey, cfg.APIs.Embedding.Model, retrieval.TaskRetrievalQuery)
	if err != nil {
		zapLog.Warn("Embedding client unavailable, retrieval disabled", zap.Error(err))
		return nil
	}

	var es *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return es.Ping()
	}, 5, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Warn("Elasticsearch unavailable, retrieval disabled", zap.Error(err))
		return nil
	}
	zapLog.Info("Elasticsearch connected successfully")

	index := retrieval.NewIndex(es, cfg.Retrieval.Index)
	return retrieval.NewInjector(true, embedder, index, cfg.Retrieval.TopK, log)
}
