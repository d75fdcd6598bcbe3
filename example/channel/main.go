package main

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/ghalamif/SignalGuard"
)

// Runs the bench config once per selector and collects the reports on a
// channel.
func main() {
	selectors := []string{"", "delay > 0", `signal.startsWith("Engine")`}

	sink, reports, closeReports := signalguard.NewChannelSink("fanout", len(selectors))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for r := range reports {
			fmt.Printf("[%s] %d signals, %d failed\n", r.RunID, len(r.Verdicts), r.FailedCount())
		}
	}()

	for _, expr := range selectors {
		cfg, err := signalguard.LoadConfig("../../data/config.yaml")
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg.Select = expr
		cfg.Report.Text.Disabled = true

		flow, err := signalguard.ConfFromConfig(cfg)
		if err != nil {
			log.Fatalf("flow: %v", err)
		}
		if _, err := flow.Run(context.Background(), signalguard.OutSink(sink)); err != nil {
			log.Fatalf("run %q: %v", expr, err)
		}
	}

	closeReports()
	wg.Wait()
}
