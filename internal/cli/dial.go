package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/simonferquel/pipehost/pkg/pipe"
)

func newDialCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "dial <name>",
		Short: "Connect to a pipe endpoint and pump stdin/stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := pipe.ResolvePath(args[0])
			if err != nil {
				return err
			}
			conn, err := dialPipe(path, timeout)
			if err != nil {
				return fmt.Errorf("dial %s: %w", path, err)
			}
			defer conn.Close()

			done := make(chan error, 1)
			go func() {
				_, err := io.Copy(conn, os.Stdin)
				done <- err
			}()
			if _, err := io.Copy(os.Stdout, conn); err != nil {
				return err
			}
			return <-done
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Dial timeout")
	return cmd
}
