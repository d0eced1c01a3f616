// Command batchfilter applies a grayscale or sepia filter to a set of images
// and writes "<name>_processed<ext>" copies into the destination directory.
//
//	batchfilter [--filter sepia] [--dest DIR] [--workers N] [--overwrite] FILE|DIR...
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-filter/internal/app"
	"github.com/aliskhannn/image-filter/internal/config"
	"github.com/aliskhannn/image-filter/internal/discover"
	"github.com/aliskhannn/image-filter/internal/filter"
	"github.com/aliskhannn/image-filter/internal/model"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("batchfilter", pflag.ContinueOnError)
	filterName := flags.StringP("filter", "f", "grayscale", "filter to apply: grayscale or sepia")
	cfgPath := flags.StringP("config", "c", "./config/config.yml", "path to the config file")
	flags.StringP("dest", "d", "", "destination directory (default ~/Pictures)")
	flags.IntP("workers", "w", 0, "images processed in parallel (default one per CPU)")
	flags.Bool("overwrite", false, "replace existing output files")
	flags.String("suffix", "", "suffix inserted before the output extension")
	flags.Int("quality", 0, "JPEG quality (1-100)")

	if err := flags.Parse(args); err != nil {
		return 2
	}

	zlog.Init()

	kind, err := filter.ParseKind(*filterName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, err := config.Load(*cfgPath, flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	paths, err := discover.Expand(flags.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	// Cancellation stops units that have not started yet.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := app.NewFileStorage(ctx, cfg.Storage)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	outcome := app.NewRunner(cfg.Batch, storage).Run(ctx, model.Request{
		Paths:     paths,
		Filter:    kind,
		Overwrite: cfg.Batch.Overwrite,
	})

	report(outcome)
	if !outcome.OK() {
		return 1
	}

	return 0
}

func report(o model.Outcome) {
	for _, res := range o.Results {
		if res.Succeeded() {
			fmt.Printf("ok    %s -> %s\n", res.Source, res.Output)
			continue
		}
		fmt.Printf("FAIL  %s [%s] %s\n", res.Source, res.Kind, res.Error)
	}
	fmt.Printf("%s: %d processed, %d failed\n", o.Filter, o.Succeeded, o.Failed)
}
