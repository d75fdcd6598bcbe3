package ports

import (
	"context"

	"github.com/ghalamif/SignalGuard/internal/domain"
)

// RuleLoader produces the rule set for a run.
type RuleLoader interface {
	LoadRules(ctx context.Context) (*domain.RuleSet, error)
	Source() string
}

// SampleLoader produces the complete, possibly unordered, sample collection
// for a run.
type SampleLoader interface {
	LoadSamples(ctx context.Context) ([]domain.Sample, error)
	Source() string
}
