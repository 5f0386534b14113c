// Package cli holds the flag handling and handle setup shared by the
// example programs.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/srediag/xshmem/api"
	"github.com/srediag/xshmem/internal/logger"
	"github.com/srediag/xshmem/pkg/shmemtest"
	"github.com/srediag/xshmem/pkg/xshmem"
)

// Common are the flags every program accepts.
type Common struct {
	Library    string
	ConfigPath string
	LogLevel   string
	Simulate   int
}

// AddFlags registers the common flags on fs.
func (c *Common) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Library, "library", "", "SHMEM library (SHMEM, NVSHMEM, ISHMEM, ROCSHMEM); empty reads "+api.EnvLibrary)
	fs.StringVar(&c.ConfigPath, "config", "", "YAML configuration file")
	fs.StringVar(&c.LogLevel, "log-level", "", "log level (trace, debug, info, warn, error, none)")
	fs.IntVar(&c.Simulate, "simulate", 0, "run N in-process PEs instead of a launched job")
}

// Config loads the configuration file, if any, and overlays the flags. The
// resulting log level is applied globally.
func (c *Common) Config() (*xshmem.Config, error) {
	cfg := xshmem.DefaultConfig()
	if c.ConfigPath != "" {
		loaded, err := xshmem.LoadConfig(c.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if c.Library != "" {
		cfg.Library = c.Library
	}
	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
	}
	if err := xshmem.VerifyConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.LogLevel != "" {
		lv, err := logger.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		logger.SetLevel(lv)
	}
	return cfg, nil
}

// PEFunc is the body of a program, called once per PE with an
// uninitialized handle.
type PEFunc func(ctx context.Context, h api.OpenSHMEM) error

// Run selects a handle per cfg and calls fn with it. With simulate > 0 it
// instead runs fn concurrently on that many in-process PEs reporting the
// resolved library. opts configure the selector.
func Run(ctx context.Context, cfg *xshmem.Config, simulate int, fn PEFunc, opts ...xshmem.Option) error {
	sel := xshmem.NewSelector(opts...)
	if simulate <= 0 {
		h, err := sel.Open(cfg)
		if err != nil {
			return err
		}
		return fn(ctx, h)
	}

	lib, err := sel.Resolve(cfg)
	if err != nil {
		return err
	}
	w, err := shmemtest.NewWorld(ctx, simulate, shmemtest.WithLibrary(lib))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil {
			logger.Default.Warnf("close simulated world: %v", cerr)
		}
	}()
	if err := w.Run(ctx, fn); err != nil {
		return fmt.Errorf("simulated %s job: %w", lib, err)
	}
	return nil
}
