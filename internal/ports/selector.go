package ports

import "github.com/ghalamif/SignalGuard/internal/domain"

// RuleSelector decides whether a rule takes part in a run.
type RuleSelector interface {
	Select(r domain.Rule) (bool, error)
}
