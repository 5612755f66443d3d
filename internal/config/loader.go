package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const EnvPrefix = "GATEWAY"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 90*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.algorithm", "fixed_window")
	v.SetDefault("ratelimit.backend", "memory")
	v.SetDefault("ratelimit.max_requests", 60)
	v.SetDefault("ratelimit.window", time.Minute)
	v.SetDefault("ratelimit.prefix", "gateway:rl:")
	v.SetDefault("ratelimit.redis_fallback", true)
	v.SetDefault("ratelimit.rps", 10.0)
	v.SetDefault("ratelimit.burst", 0)
	v.SetDefault("ratelimit.key_header", "")
	v.SetDefault("ratelimit.trust_xff", false)
	v.SetDefault("ratelimit.retry_after", time.Second)
	v.SetDefault("ratelimit.add_headers", true)
	v.SetDefault("ratelimit.missing_key", "deny")
	v.SetDefault("ratelimit.fail_closed", false)

	v.SetDefault("concurrency.max", 100)
	v.SetDefault("concurrency.timeout", time.Duration(0))

	v.SetDefault("stats.enabled", true)
	v.SetDefault("stats.backend", "memory")
	v.SetDefault("stats.prefix", "gateway:stats")
	v.SetDefault("stats.ttl", 24*time.Hour)
	v.SetDefault("stats.bucket", "minute")
	v.SetDefault("stats.track_keys", false)

	v.SetDefault("access.auth_mode", "jwt")
	v.SetDefault("access.jwt_secret", "")
	v.SetDefault("access.issuer", "")
	v.SetDefault("access.audience", "")
	v.SetDefault("access.role_header", "X-User-Role")
	v.SetDefault("access.subject_header", "X-User")
	v.SetDefault("access.static_role", "viewer")
	v.SetDefault("access.matrix_file", "")

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.path", "data/blog.db")
	v.SetDefault("store.url", "")
	v.SetDefault("store.auth_token", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("push.enabled", true)
	v.SetDefault("push.vapid_public_key", "")
	v.SetDefault("push.vapid_private_key", "")
	v.SetDefault("push.subscriber", "mailto:admin@example.com")
	v.SetDefault("push.ttl", 60)
	v.SetDefault("push.store", "memory")
	v.SetDefault("push.prefix", "gateway:push")
}

// NewViper devolve um viper com defaults e leitura de GATEWAY_* (ex.: GATEWAY_RATELIMIT_MAX_REQUESTS).
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load lê o arquivo (opcional), decodifica e valida.
func Load(v *viper.Viper, file string) (*Config, error) {
	if v == nil {
		v = NewViper()
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	lower := func(s *string) { *s = strings.ToLower(strings.TrimSpace(*s)) }
	lower(&c.RateLimit.Algorithm)
	lower(&c.RateLimit.Backend)
	lower(&c.RateLimit.MissingKey)
	lower(&c.Stats.Backend)
	lower(&c.Access.AuthMode)
	lower(&c.Store.Driver)
	lower(&c.Push.Store)

	// burst alto com rps baixo dá a impressão de que o limiter não funciona:
	// as primeiras ~20 passam.
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 20
		if c.RateLimit.RPS > 0 && c.RateLimit.RPS < 1 {
			c.RateLimit.Burst = 1
		}
	}
}

func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	rl := c.RateLimit
	switch rl.Algorithm {
	case "fixed_window":
		if rl.MaxRequests <= 0 {
			add("ratelimit.max_requests must be > 0")
		}
		if rl.Window <= 0 {
			add("ratelimit.window must be > 0")
		}
	case "token_bucket":
		if rl.RPS <= 0 {
			add("ratelimit.rps must be > 0")
		}
		if rl.Burst <= 0 {
			add("ratelimit.burst must be > 0")
		}
	default:
		add("ratelimit.algorithm must be fixed_window or token_bucket, got %q", rl.Algorithm)
	}
	switch rl.Backend {
	case "memory":
	case "redis":
		if rl.Enabled && rl.Algorithm == "fixed_window" && c.Redis.Addr == "" {
			add("redis.addr is required when ratelimit.backend=redis")
		}
	default:
		add("ratelimit.backend must be memory or redis, got %q", rl.Backend)
	}
	switch rl.MissingKey {
	case "deny", "allow", "shared":
	default:
		add("ratelimit.missing_key must be deny, allow or shared, got %q", rl.MissingKey)
	}

	if c.Concurrency.Max < 0 {
		add("concurrency.max must be >= 0")
	}

	switch c.Stats.Backend {
	case "memory":
	case "redis":
		if c.Stats.Enabled && c.Redis.Addr == "" {
			add("redis.addr is required when stats.backend=redis")
		}
	default:
		add("stats.backend must be memory or redis, got %q", c.Stats.Backend)
	}

	switch c.Access.AuthMode {
	case "jwt":
		if c.Access.JWTSecret == "" {
			add("access.jwt_secret is required when access.auth_mode=jwt")
		}
	case "header":
	case "static":
		if c.Access.StaticRole == "" {
			add("access.static_role is required when access.auth_mode=static")
		}
	default:
		add("access.auth_mode must be jwt, header or static, got %q", c.Access.AuthMode)
	}

	switch c.Store.Driver {
	case "memory":
	case "libsql":
		if c.Store.Path == "" && c.Store.URL == "" {
			add("store.path or store.url is required when store.driver=libsql")
		}
	default:
		add("store.driver must be memory or libsql, got %q", c.Store.Driver)
	}

	switch c.Push.Store {
	case "memory":
	case "redis":
		if c.Push.Enabled && c.Redis.Addr == "" {
			add("redis.addr is required when push.store=redis")
		}
	default:
		add("push.store must be memory or redis, got %q", c.Push.Store)
	}

	return errors.Join(errs...)
}

// NeedsRedis indica se algum componente configurado usa o cliente Redis.
func (c *Config) NeedsRedis() bool {
	return (c.RateLimit.Enabled && c.RateLimit.Algorithm == "fixed_window" && c.RateLimit.Backend == "redis") ||
		(c.Stats.Enabled && c.Stats.Backend == "redis") ||
		(c.Push.Enabled && c.Push.Store == "redis")
}

// RedisOptional indica que o Redis pode faltar na partida: só o rate limit o
// usa e a janela em memória assume enquanto ele estiver fora.
func (c *Config) RedisOptional() bool {
	return c.NeedsRedis() && c.RateLimit.RedisFallback &&
		!(c.Stats.Enabled && c.Stats.Backend == "redis") &&
		!(c.Push.Enabled && c.Push.Store == "redis")
}
