// Command xshmem-hello initializes the selected SHMEM library and prints the
// calling PE's rank.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/srediag/xshmem/api"
	"github.com/srediag/xshmem/internal/cli"
	"github.com/srediag/xshmem/pkg/xshmem"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd(selOpts ...xshmem.Option) *cobra.Command {
	var flags cli.Common

	rootCmd := &cobra.Command{
		Use:          "xshmem-hello",
		Short:        "print the PE rank from the selected SHMEM library",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.Config()
			if err != nil {
				return err
			}
			return cli.Run(cmd.Context(), cfg, flags.Simulate, func(ctx context.Context, h api.OpenSHMEM) (err error) {
				if err := xshmem.InitWithRetry(ctx, h, xshmem.RetryPolicy(cfg.Retry)); err != nil {
					return err
				}
				defer func() { err = errors.Join(err, h.Finalize()) }()
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Hello from PE %d out of %d\n", h.MyPE(), h.NPEs())
				return err
			}, selOpts...)
		},
	}
	flags.AddFlags(rootCmd.Flags())
	return rootCmd
}
