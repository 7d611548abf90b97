// internal/models/validation.go
// Typed validation failures raised by model invariants

package models

import "fmt"

// ValidationError identifies the entity, field and rule an invariant
// violation tripped on.
type ValidationError struct {
	Entity  string `json:"entity"`
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s.%s violates %s: %s", e.Entity, e.Field, e.Rule, e.Message)
}
