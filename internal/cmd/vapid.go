package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"blog-gateway/internal/notify"
)

var vapidCmd = &cobra.Command{
	Use:   "vapid",
	Short: "Generate a VAPID key pair for web push",
	RunE: func(cmd *cobra.Command, args []string) error {
		pub, priv, err := notify.GenerateVAPIDKeys()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "GATEWAY_PUSH_VAPID_PUBLIC_KEY=%s\n", pub)
		_, err = fmt.Fprintf(out, "GATEWAY_PUSH_VAPID_PRIVATE_KEY=%s\n", priv)
		return err
	},
}

func init() {
	rootCmd.AddCommand(vapidCmd)
}
