package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"metrics-sink/internal/config"
	"metrics-sink/internal/logger"
	"metrics-sink/internal/metrics"
	"metrics-sink/internal/shipper"
	"metrics-sink/internal/sink"
)

// errUsage is returned when the bucket-name argument is missing.
var errUsage = errors.New("missing required argument: bucket name (usage: sink <bucket-name> < input)")

func main() {
	if err := run(os.Args[1:], os.Stdin); err != nil {
		fmt.Fprintf(os.Stderr, "sink: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader) error {

	// ====================================================================
	// Arguments
	// ====================================================================
	//
	// Exactly one positional argument: the bucket name. Checked before the
	// environment is even read so a bad invocation does no I/O.
	// ====================================================================
	if len(args) < 1 {
		return errUsage
	}
	bucketName := args[0]

	// ====================================================================
	// Config & Logger
	// ====================================================================
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logger.Init(cfg)
	m := metrics.New()

	// ====================================================================
	// Context
	// ====================================================================
	//
	// No signal handling: read and flush are not cancellable, and SIGINT /
	// SIGTERM must keep killing the process mid-run.
	// ====================================================================
	ctx := context.Background()

	// ====================================================================
	// Ship stage (only with SHIP_BUCKET)
	// ====================================================================
	var ship sink.Shipper
	if cfg.ShipEnabled() {
		uploader, err := shipper.NewS3Uploader(ctx, cfg, m)
		if err != nil {
			return err
		}
		ship = shipper.New(cfg, log, m, uploader)
		log.Info().
			Str("ship_bucket", cfg.ShipBucket).
			Str("ship_prefix", cfg.ShipPrefix).
			Msg("shipping enabled")
	}

	// ====================================================================
	// Run
	// ====================================================================
	runner := sink.New(cfg, config.DataDir, log, m, ship)

	res, err := runner.Run(ctx, bucketName, stdin)
	if err != nil {
		log.Error().Err(err).Str("bucket", bucketName).Msg("run failed")
		return err
	}

	log.Info().
		Str("bucket", bucketName).
		Int("files", len(res.Files)).
		Int("records", res.Bucketed).
		Int("skipped", res.Skipped).
		Msg("run complete")
	return nil
}
