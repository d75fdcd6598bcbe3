package main

import (
	"context"
	"fmt"
	"log"

	"github.com/ghalamif/SignalGuard"
)

func main() {
	flow, err := signalguard.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	flow.Config().Report.Text.Disabled = true

	callback := func(r *signalguard.Report) error {
		for _, v := range r.Verdicts {
			if !v.Failed() {
				continue
			}
			fmt.Printf("%s run=%s signal=%s failed_at=%d samples=%d\n",
				r.FinishedAt.Format("15:04:05"),
				r.RunID,
				v.Signal,
				v.FailedAt,
				v.Samples,
			)
		}
		return nil
	}

	if _, err := flow.Run(context.Background(), signalguard.OutCallback("stdout", callback)); err != nil {
		log.Fatalf("run: %v", err)
	}
}
