package objective

import (
	"fmt"

	"schemata/internal/data"
	"schemata/internal/expr"
)

// Error reports an operator or value kind the objective cannot evaluate.
// It fails a single evaluation only.
type Error struct {
	Op     expr.Op
	LHS    data.Kind
	RHS    data.Kind
	Reason string
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return "objective: " + e.Reason
	}
	return fmt.Sprintf("objective: operator %s not supported for %s and %s", e.Op, e.LHS, e.RHS)
}
