package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"blog-gateway/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		a, err := buildApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				log.Warn("close resources", zap.Error(err))
			}
		}()
		a.startJanitors(ctx)

		rl := cfg.RateLimit
		log.Info("rate limit",
			zap.Bool("enabled", rl.Enabled),
			zap.String("algorithm", rl.Algorithm),
			zap.String("backend", rl.Backend),
			zap.Int("max_requests", rl.MaxRequests),
			zap.Duration("window", rl.Window),
			zap.Float64("rps", rl.RPS),
			zap.Int("burst", rl.Burst),
			zap.String("key_header", rl.KeyHeader),
			zap.Bool("trust_xff", rl.TrustXFF),
			zap.String("missing_key", rl.MissingKey),
			zap.Bool("fail_closed", rl.FailClosed),
		)
		log.Info("access",
			zap.String("auth_mode", cfg.Access.AuthMode),
			zap.String("matrix_file", cfg.Access.MatrixFile),
		)
		log.Info("concurrency", zap.Int("max", cfg.Concurrency.Max), zap.Duration("acquire_timeout", cfg.Concurrency.Timeout))

		return server.New(cfg.Server, a.handler, log).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	_ = v.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}
