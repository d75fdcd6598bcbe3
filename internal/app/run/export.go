package run

import (
	"context"
	"fmt"

	"github.com/ghalamif/SignalGuard/internal/domain"
	"github.com/ghalamif/SignalGuard/internal/ports"
)

// SampleAppender receives exported samples; a capture writer satisfies it.
type SampleAppender interface {
	Append(s domain.Sample) (uint64, error)
}

// Export copies every sample of src into dst in source order and returns
// the number written.
func Export(ctx context.Context, src ports.SampleLoader, dst SampleAppender, obs ports.Observability) (int, error) {
	if obs == nil {
		obs = ports.NopObservability{}
	}
	samples, err := timedLoad(obs, "samples", src.Source(), func() ([]domain.Sample, error) {
		return src.LoadSamples(ctx)
	})
	if err != nil {
		return 0, fmt.Errorf("load samples from %s: %w", src.Source(), err)
	}
	for i, s := range samples {
		if _, err := dst.Append(s); err != nil {
			return i, fmt.Errorf("append sample %d: %w", i, err)
		}
	}
	obs.LogInfo("samples_exported",
		ports.Field{Key: "source", Value: src.Source()},
		ports.Field{Key: "samples", Value: len(samples)},
	)
	return len(samples), nil
}
