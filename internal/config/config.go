// Package config carrega a configuração do gateway com viper:
// defaults em código, arquivo YAML opcional e variáveis GATEWAY_* por cima.
package config

import (
	"time"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	RateLimit   RateLimitConfig   `mapstructure:"ratelimit"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency"`
	Stats       StatsConfig       `mapstructure:"stats"`
	Access      AccessConfig      `mapstructure:"access"`
	Store       StoreConfig       `mapstructure:"store"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Push        PushConfig        `mapstructure:"push"`
}

type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: json ou console
	Format string `mapstructure:"format"`
}

type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Algorithm: fixed_window (padrão) ou token_bucket
	Algorithm string `mapstructure:"algorithm"`
	// Backend da janela fixa: memory ou redis
	Backend     string        `mapstructure:"backend"`
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
	Prefix      string        `mapstructure:"prefix"`
	// RedisFallback conta em memória enquanto o Redis estiver fora.
	RedisFallback bool `mapstructure:"redis_fallback"`

	// token bucket
	RPS float64 `mapstructure:"rps"`
	// Burst 0 = automático (20, ou 1 quando rps < 1)
	Burst int `mapstructure:"burst"`

	KeyHeader  string        `mapstructure:"key_header"`
	TrustXFF   bool          `mapstructure:"trust_xff"`
	RetryAfter time.Duration `mapstructure:"retry_after"`
	AddHeaders bool          `mapstructure:"add_headers"`
	// MissingKey: deny, allow ou shared
	MissingKey string `mapstructure:"missing_key"`
	FailClosed bool   `mapstructure:"fail_closed"`
}

type ConcurrencyConfig struct {
	Max     int           `mapstructure:"max"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type StatsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Backend: memory ou redis (memory sempre alimenta /api/stats)
	Backend   string        `mapstructure:"backend"`
	Prefix    string        `mapstructure:"prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
	Bucket    string        `mapstructure:"bucket"`
	TrackKeys bool          `mapstructure:"track_keys"`
}

type AccessConfig struct {
	// AuthMode: jwt, header ou static
	AuthMode      string `mapstructure:"auth_mode"`
	JWTSecret     string `mapstructure:"jwt_secret"`
	Issuer        string `mapstructure:"issuer"`
	Audience      string `mapstructure:"audience"`
	RoleHeader    string `mapstructure:"role_header"`
	SubjectHeader string `mapstructure:"subject_header"`
	StaticRole    string `mapstructure:"static_role"`
	MatrixFile    string `mapstructure:"matrix_file"`
}

type StoreConfig struct {
	// Driver: memory ou libsql
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type PushConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	VAPIDPublicKey  string `mapstructure:"vapid_public_key"`
	VAPIDPrivateKey string `mapstructure:"vapid_private_key"`
	Subscriber      string `mapstructure:"subscriber"`
	TTL             int    `mapstructure:"ttl"`
	// Store: memory ou redis
	Store  string `mapstructure:"store"`
	Prefix string `mapstructure:"prefix"`
}
