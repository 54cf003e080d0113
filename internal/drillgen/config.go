package drillgen

import "time"

// Config controls the LLMGenerator and the Service.
type Config struct {
	// Validators run in order on every generated drill; the first failure
	// rejects the whole batch.
	Validators []Validator

	MaxTokens   int
	Temperature float64

	// MaxAvoid caps the number of avoided stems listed in the prompt.
	MaxAvoid int

	// Timeout bounds one GenerateDrills call, retries included.
	Timeout time.Duration

	// CacheTTL is how long generated drills stay resolvable.
	CacheTTL time.Duration
}

// DefaultConfig returns the standard validator chain and limits.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
			&NoveltyValidator{},
		},
		MaxTokens:   1024,
		Temperature: 0.7,
		MaxAvoid:    8,
		Timeout:     8 * time.Second,
		CacheTTL:    24 * time.Hour,
	}
}
