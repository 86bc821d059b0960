package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/df07/go-whitted-raytracer/pkg/config"
	"github.com/df07/go-whitted-raytracer/pkg/logging"
	"github.com/df07/go-whitted-raytracer/web/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Parse command line flags
	flag.StringVar(&cfg.Address, "addr", cfg.Address, "Address to serve on")
	flag.StringVar(&cfg.GRPCAddress, "grpc-addr", cfg.GRPCAddress, "Address of the gRPC health service (empty disables it)")
	flag.Parse()

	logger, err := logging.New(cfg.Logging, "raytracer-web")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("whitted raytracer web server starting", logging.String("addr", cfg.Address))
	if err := server.NewServer(cfg, logger).Start(ctx); err != nil {
		logger.Error("server stopped", logging.Error(err))
		os.Exit(1)
	}
}
