package drillgen

import (
	"fmt"

	"github.com/abhisek/kotoba/internal/content"
)

// Validator checks a generated drill before it is handed out.
type Validator interface {
	Name() string
	Validate(d *content.Drill, req Request) *ValidationError
}

// ValidationError describes why a drill was rejected.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}
