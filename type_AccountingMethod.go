package tradebook

import (
	"fmt"
	"strings"
)

// AccountingMethod selects the period realized P/L is attributed to.
type AccountingMethod int

const (
	// Cash attributes realized P/L to the period of each exit.
	Cash AccountingMethod = iota
	// Accrual attributes realized P/L to the period the trade was entered.
	Accrual
)

func (m AccountingMethod) String() string {
	switch m {
	case Cash:
		return "cash"
	case Accrual:
		return "accrual"
	default:
		return "unknown"
	}
}

// ParseAccountingMethod parses a string into an AccountingMethod.
func ParseAccountingMethod(s string) (AccountingMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cash":
		return Cash, nil
	case "accrual":
		return Accrual, nil
	default:
		return 0, fmt.Errorf("unknown accounting method: %q", s)
	}
}

// PartialWeighting controls how the realized and unrealized legs of a
// partially closed trade are blended into a single comparison price.
type PartialWeighting int

const (
	// QuantityWeighted weights the realized leg by exited quantity and the
	// unrealized leg by open quantity.
	QuantityWeighted PartialWeighting = iota
	// EqualWeighted gives both legs the same weight.
	EqualWeighted
)

func (w PartialWeighting) String() string {
	switch w {
	case QuantityWeighted:
		return "quantity"
	case EqualWeighted:
		return "equal"
	default:
		return "unknown"
	}
}

// ParsePartialWeighting parses a string into a PartialWeighting.
func ParsePartialWeighting(s string) (PartialWeighting, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quantity", "":
		return QuantityWeighted, nil
	case "equal":
		return EqualWeighted, nil
	default:
		return 0, fmt.Errorf("unknown partial weighting: %q", s)
	}
}
