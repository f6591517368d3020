package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func NewRoot(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pipehost",
		Short:         "pipehost: named-pipe server endpoint host",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Version = version
	cmd.SetVersionTemplate("pipehost {{.Version}}\n")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newDialCmd())
	cmd.AddCommand(newResolveCmd())

	return cmd
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
