// Package cmd é a CLI do gateway (cobra).
package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"blog-gateway/internal/config"
	"blog-gateway/internal/observability"
)

var (
	cfgFile string
	v       = config.NewViper()

	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo é chamado pelo main com os valores do -ldflags.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

var rootCmd = &cobra.Command{
	Use:   "blog-gateway",
	Short: "Blog posts API behind a rate limit and role-based access gate",
	Long: `blog-gateway serves the blog posts API and the web push demo.

Every API route passes through the rate limiter, then the role-based
access check, before reaching the resource controller.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml); GATEWAY_* env vars override it")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug|info|warn|error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: json|console")
	_ = v.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func loadConfig() (*config.Config, error) {
	return config.Load(v, cfgFile)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return observability.NewLogger("blog-gateway", cfg.Logging.Level, cfg.Logging.Format)
}
