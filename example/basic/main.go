package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ghalamif/SignalGuard"
)

func main() {
	flow, err := signalguard.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	report, err := flow.Run(ctx)
	stop()
	if err != nil {
		log.Fatalf("run: %v", err)
	}
	if !report.Passed() {
		os.Exit(3)
	}
}
