package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonferquel/pipehost/pkg/pipe"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <name>",
		Short: "Print the fully qualified path for a pipe name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := pipe.ResolvePath(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
