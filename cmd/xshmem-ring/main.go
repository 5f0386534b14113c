// Command xshmem-ring runs the ring put/verify exchange on the selected SHMEM
// library, from the host or from kernels on an accelerator queue.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/srediag/xshmem/api"
	"github.com/srediag/xshmem/internal/admin"
	"github.com/srediag/xshmem/internal/cli"
	"github.com/srediag/xshmem/internal/ring"
	"github.com/srediag/xshmem/pkg/queue"
	"github.com/srediag/xshmem/pkg/xshmem"
)

var errVerify = errors.New("ring verification failed")

type options struct {
	cli.Common
	elements  int
	mode      string
	inOrder   bool
	workers   int
	adminAddr string
	selector  []xshmem.Option
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd(selOpts ...xshmem.Option) *cobra.Command {
	opts := options{selector: selOpts}

	rootCmd := &cobra.Command{
		Use:          "xshmem-ring",
		Short:        "pass each PE's rank to its neighbour and verify it arrived",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, &opts)
		},
	}
	opts.AddFlags(rootCmd.Flags())
	rootCmd.Flags().IntVar(&opts.elements, "elements", ring.DefaultElements, "ints written to the next PE")
	rootCmd.Flags().StringVar(&opts.mode, "mode", string(ring.ModeHost), "issue puts from the host or from queue kernels (host, device)")
	rootCmd.Flags().BoolVar(&opts.inOrder, "in-order", true, "device mode: complete kernels in submission order")
	rootCmd.Flags().IntVar(&opts.workers, "workers", 0, "device mode: queue workers (0 uses the CPU count)")
	rootCmd.Flags().StringVar(&opts.adminAddr, "admin-addr", "", "serve /live, /ready and /metrics on this address")
	return rootCmd
}

func run(cmd *cobra.Command, opts *options) error {
	cfg, err := opts.Config()
	if err != nil {
		return err
	}
	mode, err := ring.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("in-order") {
		cfg.Queue.InOrder = opts.inOrder
	}
	if flags.Changed("workers") {
		cfg.Queue.Workers = opts.workers
	}
	if flags.Changed("admin-addr") {
		cfg.Admin.Addr = opts.adminAddr
	}

	var (
		metrics *xshmem.Metrics
		ready   atomic.Int32
		hosted  = int32(max(opts.Simulate, 1))
	)
	if cfg.Admin.Addr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		if metrics, err = xshmem.NewMetrics(reg); err != nil {
			return err
		}
		srv := admin.New(cfg.Admin.Addr, reg)
		srv.AddReadinessCheck("shmem-init", func() error {
			if ready.Load() < hosted {
				return errors.New("SHMEM not initialized")
			}
			return nil
		})
		if err := srv.Start(); err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	var failed atomic.Bool
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	err = cli.Run(cmd.Context(), cfg, opts.Simulate, func(ctx context.Context, h api.OpenSHMEM) (err error) {
		if metrics != nil {
			h = xshmem.Instrument(h, xshmem.WithMetrics(metrics), xshmem.WithContext(ctx))
		}
		if err := xshmem.InitWithRetry(ctx, h, xshmem.RetryPolicy(cfg.Retry)); err != nil {
			return err
		}
		defer func() { err = errors.Join(err, h.Finalize()) }()
		ready.Add(1)
		defer ready.Add(-1)

		var q *queue.Queue
		if mode == ring.ModeDevice {
			var qerr error
			if q, qerr = queue.New(queue.WithWorkers(cfg.Queue.Workers), queue.WithInOrder(cfg.Queue.InOrder)); qerr != nil {
				return qerr
			}
			defer q.Close()
			fmt.Fprintf(out, "My PE: %d out of %d , Selected device: %s\n", h.MyPE(), h.NPEs(), q.Device().Name)
		}

		report, err := ring.Exchange(ctx, h, q, ring.Options{Elements: opts.elements, Mode: mode})
		if err != nil {
			return err
		}
		if !printReport(out, errOut, report) {
			failed.Store(true)
		}
		return nil
	}, opts.selector...)
	if err != nil {
		return err
	}
	if failed.Load() {
		return errVerify
	}
	return nil
}

func printReport(out, errOut io.Writer, r *ring.Report) bool {
	for _, i := range r.Mismatches {
		fmt.Fprintf(errOut, "PE: %d SHMEM put failed at index: %d\n", r.PE, i)
	}
	if len(r.Mismatches) > 0 {
		return false
	}
	fmt.Fprintf(out, "%d PE successfully received the data using SHMEM put.\n", r.PE)
	return true
}
