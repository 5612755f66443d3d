package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var extended bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "blog-gateway %s\n", versionInfo.Version)
		if extended {
			_, _ = fmt.Fprintf(out, "Commit: %s\n", versionInfo.Commit)
			_, _ = fmt.Fprintf(out, "Built: %s\n", versionInfo.BuildDate)
			_, _ = fmt.Fprintf(out, "Go: %s\n", runtime.Version())
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVarP(&extended, "extended", "e", false, "show commit, build date and Go version")
	rootCmd.AddCommand(versionCmd)
}
