package services

import (
	"context"
	"fmt"

	"github.com/coolshop/kbbridge/pkg/ada"
	"github.com/coolshop/kbbridge/pkg/kbapi/config"
	"github.com/coolshop/kbbridge/pkg/kbapi/services/installations"
	"github.com/coolshop/kbbridge/pkg/kbhub"
	"github.com/coolshop/kbbridge/pkg/kblog"
	"github.com/coolshop/kbbridge/pkg/kv"
	"github.com/coolshop/kbbridge/pkg/store"
	"github.com/coolshop/kbbridge/pkg/webhook"
	"github.com/uptrace/bun"
)

type Services struct {
	Installations *installations.Service
	// BaseURL is the bridge's public origin. Empty means derive it from
	// each request.
	BaseURL string
}

func NewServices(cfg *config.EnvConfig, db *bun.DB, kvStore kv.Store, catalog kbhub.Catalog, logger *kblog.Logger) (*Services, error) {
	client, err := ada.NewClient(cfg.AdaConfig())
	if err != nil {
		return nil, err
	}

	verifier := &webhook.Verifier{
		MaxSkew:   cfg.WebhookMaxSkewDuration(),
		Ledger:    kvStore,
		ReplayTTL: cfg.WebhookReplayTTLDuration(),
	}

	svc := installations.NewService(store.NewBunStore(db), client, catalog, installations.Options{
		Verifier: verifier,
		Logger:   logger,
	})

	return &Services{
		Installations: svc,
		BaseURL:       cfg.BaseURL,
	}, nil
}

// NewKV picks Redis when REDIS_ADDR is set, else a process-local store.
func NewKV(ctx context.Context, cfg *config.EnvConfig) (kv.Store, error) {
	if cfg.RedisAddr == "" {
		return kv.NewMemoryStore(), nil
	}
	st, err := kv.NewRedisStore(ctx, cfg.RedisConfig())
	if err != nil {
		return nil, err
	}
	return st, nil
}

// NewCatalog picks the article source: S3, then a local file, then the
// built-in demo article.
func NewCatalog(cfg *config.EnvConfig) (kbhub.Catalog, error) {
	switch {
	case cfg.ArticlesS3Endpoint != "":
		c, err := kbhub.NewS3Catalog(cfg.S3Config())
		if err != nil {
			return nil, fmt.Errorf("article catalog: %w", err)
		}
		return c, nil
	case cfg.ArticlesFile != "":
		return kbhub.NewFileCatalog(cfg.ArticlesFile), nil
	default:
		return kbhub.DemoCatalog(), nil
	}
}
