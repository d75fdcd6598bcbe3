package domain

// Sample is a single recorded reading of one signal.
type Sample struct {
	Timestamp int64   `json:"ts"`
	Signal    string  `json:"signal_name"`
	Value     float64 `json:"value"`
}
