package truthtable

import "fmt"

// Order selects how rows enumerate assignments.
type Order int

const (
	// TrueFirst starts with every variable true and counts down.
	TrueFirst Order = iota
	// FalseFirst starts with every variable false and counts up in binary.
	FalseFirst
)

func (o Order) String() string {
	if o == FalseFirst {
		return "false-first"
	}
	return "true-first"
}

// ParseOrder parses "true-first" or "false-first".
func ParseOrder(s string) (Order, error) {
	switch s {
	case "", "true-first":
		return TrueFirst, nil
	case "false-first":
		return FalseFirst, nil
	}
	return TrueFirst, fmt.Errorf("unknown order %q (want true-first or false-first)", s)
}

// Assign fills dst with the assignment for row. Column c follows bit
// len(dst)-c-1 of row, so the first variable changes slowest.
func Assign(row int, dst []bool, order Order) {
	n := len(dst)
	for c := range dst {
		bit := row>>(n-c-1)&1 == 1
		if order == TrueFirst {
			dst[c] = !bit
		} else {
			dst[c] = bit
		}
	}
}
