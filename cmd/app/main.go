package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfsplitter/internal/ai"
	"github.com/local/pdfsplitter/internal/archive"
	cfgpkg "github.com/local/pdfsplitter/internal/config"
	"github.com/local/pdfsplitter/internal/filetype"
	logpkg "github.com/local/pdfsplitter/internal/logger"
	"github.com/local/pdfsplitter/internal/metrics"
	"github.com/local/pdfsplitter/internal/mupdf"
	"github.com/local/pdfsplitter/internal/pdf"
	"github.com/local/pdfsplitter/internal/preview"
	"github.com/local/pdfsplitter/internal/process"
	"github.com/local/pdfsplitter/internal/server"
	"github.com/local/pdfsplitter/internal/session"
	"github.com/local/pdfsplitter/internal/statuscheck"
	"github.com/local/pdfsplitter/internal/storage"
	"github.com/local/pdfsplitter/internal/suggest"
	"github.com/local/pdfsplitter/internal/web"
)

func main() {
	_ = godotenv.Load()
	cfg := cfgpkg.FromEnv()

	// Init logging
	_ = logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
	defer logpkg.Close()

	metrics.Init()

	// Artifact store
	store := buildStore(cfg.Store)

	// Suggestion oracle (optional)
	oracle, model := buildOracle(cfg.Oracle)

	// Suggestion cache (optional)
	var cache suggest.Cache
	var pinger statuscheck.RedisPinger
	if cfg.Oracle.RedisURL != "" {
		rc, err := suggest.NewRedisCache(cfg.Oracle.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("suggestion cache disabled")
		} else {
			cache = rc
			pinger = rc
			defer rc.Close()
		}
	}

	manager := session.NewManager(session.Dependencies{
		Codec:        pdf.NewCodec(cfg.Process.ExtractWorkers),
		Packager:     &archive.Zip{},
		Store:        store,
		Detector:     filetype.New(),
		Oracle:       oracle,
		Cache:        cache,
		Sampler:      mupdf.NewSampler(cfg.Oracle.SamplePages, cfg.Oracle.SampleChars),
		HistoryLimit: cfg.Session.HistoryLimit,
		SuggestCfg: suggest.Config{
			Model:          model,
			MaxSuggestions: cfg.Oracle.MaxSuggestions,
			Timeout:        cfg.Oracle.Timeout,
			CacheTTL:       cfg.Oracle.CacheTTL,
		},
		ProcessCfg: process.Config{
			TickInterval: cfg.Process.TickInterval,
			TickStep:     cfg.Process.TickStep,
		},
	}, cfg.Session.TTL, cfg.Session.SweepInterval)
	defer manager.Stop()

	checker := statuscheck.New(statuscheck.Options{
		Redis:        pinger,
		Provider:     cfg.Oracle.Provider,
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		StoreBackend: cfg.Store.Backend,
		ResultDir:    cfg.Store.ResultDir,
		S3Bucket:     cfg.Store.S3Bucket,
		S3Region:     cfg.Store.S3Region,
		S3AccessKey:  cfg.Store.S3AccessKey,
		S3SecretKey:  cfg.Store.S3SecretKey,
	})

	r := mux.NewRouter()
	server.New(manager, store, preview.New(), checker, cfg.Server.MaxUploadMB).RegisterRoutes(r)
	web.New(cfg.Web.Username, cfg.Web.Password).RegisterRoutes(r)

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: r}

	go func() {
		log.Info().Msgf("HTTP server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("shutdown complete")
}

func buildStore(cfg cfgpkg.StoreConfig) storage.Store {
	switch cfg.Backend {
	case "disk":
		ds, err := storage.NewDiskStore(cfg.ResultDir)
		if err != nil {
			log.Fatal().Err(err).Str("dir", cfg.ResultDir).Msg("failed to init disk store")
		}
		return ds
	case "s3":
		s3s, err := storage.NewS3Store(context.Background(), storage.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Password:  cfg.EncryptionPassword,
		})
		if err != nil {
			log.Fatal().Err(err).Str("bucket", cfg.S3Bucket).Msg("failed to init s3 store")
		}
		return s3s
	default:
		return storage.NewMemoryStore()
	}
}

func buildOracle(cfg cfgpkg.OracleConfig) (ai.Client, string) {
	switch cfg.Provider {
	case "openai":
		return ai.NewOpenAIClient(), cfg.OpenAIModel
	case "anthropic":
		return ai.NewAnthropicClient(), cfg.AnthropicModel
	case "", "none", "off":
		log.Info().Msg("suggestions disabled: no oracle provider configured")
		return nil, ""
	default:
		log.Warn().Str("provider", cfg.Provider).Msg("unknown oracle provider, suggestions disabled")
		return nil, ""
	}
}
