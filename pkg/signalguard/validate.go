package signalguard

import "github.com/ghalamif/SignalGuard/internal/app/engine"

// Validate evaluates samples against rules in memory and returns one verdict
// per rule, in rule order. Rules are checked like loaded ones; a repeated
// signal name is an error.
func Validate(rules []Rule, samples []Sample) ([]Verdict, error) {
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	eng, err := engine.New(rules)
	if err != nil {
		return nil, err
	}
	eng.Run(samples)
	return eng.Report(), nil
}
