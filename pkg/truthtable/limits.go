package truthtable

import (
	"errors"
	"fmt"
)

// DefaultMaxVariables bounds a table at 65536 rows.
const DefaultMaxVariables = 16

// HardMaxVariables is the largest table the row index type can address.
const HardMaxVariables = 30

// ErrTooManyVariables is returned when an expression has more variables than
// the configured limit allows.
var ErrTooManyVariables = errors.New("too many variables")

// Limits holds the resource limits for building a table.
type Limits struct {
	// MaxVariables caps the number of input columns. Zero means
	// DefaultMaxVariables.
	MaxVariables int
}

func (l Limits) maxVariables() int {
	switch {
	case l.MaxVariables <= 0:
		return DefaultMaxVariables
	case l.MaxVariables > HardMaxVariables:
		return HardMaxVariables
	}
	return l.MaxVariables
}

// Check reports whether a table over n variables fits the limits.
func (l Limits) Check(n int) error {
	if max := l.maxVariables(); n > max {
		return fmt.Errorf("%w: %d variables (%d rows), limit is %d", ErrTooManyVariables, n, uint64(1)<<uint(n), max)
	}
	return nil
}
