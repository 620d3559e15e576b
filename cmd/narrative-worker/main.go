// Package main is the entrypoint for the Narrative Worker Lambda function.
//
// The worker consumes narrative requests from an SQS queue, runs the
// requested sections through the shared narrative service and publishes
// each result to the results queue.
//
// Cold Start (main):
//  1. Load configuration and initialize the structured logger.
//  2. Wire the narrative service (engine, row source, recorders).
//  3. Initialize the SQS client and the result publisher.
//  4. Register handler and call lambda.Start.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"transitinsight/internal/config"
	"transitinsight/internal/types"
	"transitinsight/internal/wiring"
	"transitinsight/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if cfg.AWS.ResultsQueueURL == "" {
		return fmt.Errorf("SQS_NARRATIVE_RESULTS is required for the worker")
	}

	logger := wiring.NewLogger(cfg.LogLevel, os.Stdout)
	logger.Info("Narrative Worker Lambda initializing (cold start)",
		"version", cfg.Build.Version,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deps, err := wiring.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("wiring dependencies: %w", err)
	}

	awsCfg, err := wiring.LoadAWS(ctx, cfg.AWS)
	if err != nil {
		deps.Close()
		return err
	}

	typedLogger := types.NewSlogAdapter(logger)
	publisher := worker.NewResultPublisher(sqs.NewFromConfig(awsCfg), cfg.AWS.ResultsQueueURL, typedLogger)
	handler := worker.NewHandler(deps.Service, publisher, cfg.Server.MaxReportSize, typedLogger)

	logger.Info("Narrative Worker Lambda initialized",
		"results_queue", cfg.AWS.ResultsQueueURL,
		"dataset", cfg.Data.Dataset,
	)

	lambda.Start(handler.Handle)
	return nil
}
