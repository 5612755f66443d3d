package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"blog-gateway/internal/config"
	"blog-gateway/internal/notify"
	"blog-gateway/internal/posts"
	"blog-gateway/internal/server"
	"blog-gateway/middleware/access"
	"blog-gateway/middleware/ratelimit"
	"blog-gateway/middleware/ratelimit/infra"
	"blog-gateway/middleware/stats"
)

// app é o grafo de dependências montado a partir da config.
type app struct {
	handler  http.Handler
	janitors []func(ctx context.Context)
	closers  []func() error
}

func (a *app) startJanitors(ctx context.Context) {
	for _, start := range a.janitors {
		start(ctx)
	}
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func buildApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	var rdb *redis.Client
	if cfg.NeedsRedis() {
		rdb = newRedisClient(cfg.Redis)
		a.closers = append(a.closers, rdb.Close)
		if err = pingRedis(ctx, rdb, cfg.Redis.Addr); err != nil {
			if !cfg.RedisOptional() {
				return nil, err
			}
			// só o rate limit usa Redis e ele cai para a janela em memória
			log.Warn("redis unreachable at startup, rate limit falls back to memory", zap.Error(err))
			err = nil
		}
	}

	repo, closeRepo, err := openRepository(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if closeRepo != nil {
		a.closers = append(a.closers, closeRepo)
	}

	health := map[string]server.HealthChecker{
		"store": server.HealthFunc(repo.Ping),
	}
	if rdb != nil {
		health["redis"] = server.HealthFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	var (
		statsStore stats.Store
		statsMem   *stats.MemoryStore
	)
	if cfg.Stats.Enabled {
		statsMem = stats.NewMemoryStore(stats.WithTrackKeys(cfg.Stats.TrackKeys))
		statsStore = statsMem
		if cfg.Stats.Backend == "redis" {
			statsStore = stats.Multi{statsMem, stats.NewRedisStore(rdb,
				stats.WithPrefix(cfg.Stats.Prefix),
				stats.WithTTL(cfg.Stats.TTL),
				stats.WithBucket(cfg.Stats.Bucket),
				stats.WithRedisTrackKeys(cfg.Stats.TrackKeys),
			)}
		}
	}

	chain := server.Chain{}
	if cfg.RateLimit.Enabled {
		chain.Rate = a.rateGate(cfg.RateLimit, rdb, statsStore, log)
	}

	accessGate, err := newAccessGate(cfg.Access, statsStore, log)
	if err != nil {
		return nil, err
	}
	chain.Access = accessGate

	conc := ratelimit.NewConcurrency(ratelimit.ConcurrencyOptions{
		Max:            cfg.Concurrency.Max,
		AcquireTimeout: cfg.Concurrency.Timeout,
	})
	health["concurrency"] = conc

	deps := server.Deps{
		Logger:      log,
		Version:     versionInfo.Version,
		Chain:       chain,
		Concurrency: conc.Middleware,
		Posts:       posts.NewController(repo, posts.WithLogger(log.Named("posts"))),
		Health:      health,
	}
	if statsMem != nil {
		deps.Stats = statsMem
	}

	if cfg.Push.Enabled {
		subs, err := openSubscriptions(cfg.Push, rdb)
		if err != nil {
			return nil, err
		}
		if cfg.Push.VAPIDPublicKey == "" || cfg.Push.VAPIDPrivateKey == "" {
			log.Warn("push enabled without VAPID keys; send will fail until push.vapid_* are set")
		}
		sender := notify.NewWebPushSender(notify.VAPIDConfig{
			PublicKey:  cfg.Push.VAPIDPublicKey,
			PrivateKey: cfg.Push.VAPIDPrivateKey,
			Subscriber: cfg.Push.Subscriber,
			TTL:        cfg.Push.TTL,
		}, &http.Client{Timeout: 10 * time.Second})
		svc := notify.NewService(subs, sender, log.Named("notify"))
		deps.Notifications = notify.NewController(svc, cfg.Push.VAPIDPublicKey, log.Named("notify"))
	}

	a.handler = server.NewRouter(deps)
	return a, nil
}

func (a *app) rateGate(cfg config.RateLimitConfig, rdb *redis.Client, st stats.Store, log *zap.Logger) *ratelimit.Gate {
	opts := ratelimit.Options{
		Stats:               st,
		Logger:              log,
		KeyHeader:           cfg.KeyHeader,
		TrustXForwardedFor:  cfg.TrustXFF,
		MissingKey:          ratelimit.MissingKeyPolicy(cfg.MissingKey),
		RejectStatus:        http.StatusTooManyRequests,
		RetryAfter:          cfg.RetryAfter,
		FailClosed:          cfg.FailClosed,
		AddRateLimitHeaders: cfg.AddHeaders,
	}

	switch cfg.Algorithm {
	case "token_bucket":
		store := infra.NewStore(cfg.RPS, cfg.Burst)
		a.janitors = append(a.janitors, store.StartJanitor)
		opts.Store = store
	default:
		mem := infra.NewMemoryWindowStore(cfg.Window)
		a.janitors = append(a.janitors, mem.StartJanitor)
		opts.MaxRequests = cfg.MaxRequests
		opts.Windows = mem
		if cfg.Backend == "redis" {
			ropts := []infra.RedisWindowOption{infra.WithWindowPrefix(cfg.Prefix)}
			if cfg.RedisFallback {
				ropts = append(ropts, infra.WithFallback(mem))
			}
			opts.Windows = infra.NewRedisWindowStore(rdb, cfg.Window, ropts...)
		}
	}
	return ratelimit.NewGate(opts)
}

func newAccessGate(cfg config.AccessConfig, st stats.Store, log *zap.Logger) (*access.Gate, error) {
	matrix := access.DefaultMatrix()
	if cfg.MatrixFile != "" {
		m, err := access.LoadMatrixFile(cfg.MatrixFile)
		if err != nil {
			return nil, err
		}
		matrix = m
	}

	var resolver access.Resolver
	switch cfg.AuthMode {
	case "jwt":
		resolver = access.NewJWTResolver(cfg.JWTSecret, cfg.Issuer, cfg.Audience)
	case "header":
		resolver = access.HeaderResolver{Header: cfg.RoleHeader, SubjectHeader: cfg.SubjectHeader}
	case "static":
		resolver = access.StaticResolver{Role: access.Role(cfg.StaticRole)}
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.AuthMode)
	}
	return access.NewGate(matrix, resolver, access.WithStats(st), access.WithLogger(log)), nil
}

func newRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func pingRedis(ctx context.Context, rdb *redis.Client, addr string) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return nil
}

func openRepository(ctx context.Context, cfg config.StoreConfig) (posts.Repository, func() error, error) {
	switch cfg.Driver {
	case "libsql":
		repo, err := posts.OpenSQL(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	case "memory", "":
		return posts.NewMemoryRepository(), nil, nil
	}
	return nil, nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
}

func openSubscriptions(cfg config.PushConfig, rdb *redis.Client) (notify.Store, error) {
	if cfg.Store == "redis" {
		return notify.NewRedisStore(rdb, cfg.Prefix)
	}
	return notify.NewMemoryStore(), nil
}
