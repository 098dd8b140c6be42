package tradebook

import (
	"errors"
	"fmt"

	"github.com/etnz/tradebook/date"
)

// ExcessExitError is returned when a trade exits more shares than it entered.
// The caller decides whether to reject the trade or clamp its exits.
type ExcessExitError struct {
	TradeID string
	Entered Quantity
	Exited  Quantity
}

func (e *ExcessExitError) Error() string {
	if e.TradeID == "" {
		return fmt.Sprintf("exits %v exceed entries %v", e.Exited, e.Entered)
	}
	return fmt.Sprintf("trade %q: exits %v exceed entries %v", e.TradeID, e.Exited, e.Entered)
}

// InvalidCapitalAmountError is returned when a yearly capital or a monthly
// override is not strictly positive.
type InvalidCapitalAmountError struct {
	Kind   string // "yearly capital" or "monthly override"
	Period string
	Amount Money
}

func (e *InvalidCapitalAmountError) Error() string {
	return fmt.Sprintf("invalid %s for %s: %v must be positive", e.Kind, e.Period, e.Amount.Decimal())
}

// MissingPriceError is a soft error: an open position has no current market
// price, its unrealized P/L defaults to zero.
type MissingPriceError struct {
	TradeID string
	Symbol  string
}

func (e *MissingPriceError) Error() string {
	return fmt.Sprintf("trade %q: missing current price for %q", e.TradeID, e.Symbol)
}

// ErrPortfolioUnresolved is the sentinel matched by every *PortfolioResolutionError.
var ErrPortfolioUnresolved = errors.New("portfolio size unresolved")

// PortfolioResolutionError is a soft error: no starting capital is known at
// or before a month, percentages depending on the portfolio size are undefined.
type PortfolioResolutionError struct {
	Month date.Month
}

func (e *PortfolioResolutionError) Error() string {
	if e.Month.IsZero() {
		return ErrPortfolioUnresolved.Error()
	}
	return fmt.Sprintf("%v: no starting capital at or before %v", ErrPortfolioUnresolved, e.Month)
}

func (e *PortfolioResolutionError) Is(target error) bool { return target == ErrPortfolioUnresolved }

// IsSoft returns true if every error in err is a degraded condition
// (missing price or unresolved portfolio) that must not stop a batch computation.
func IsSoft(err error) bool {
	if err == nil {
		return true
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range j.Unwrap() {
			if !IsSoft(e) {
				return false
			}
		}
		return true
	}
	var mp *MissingPriceError
	return errors.As(err, &mp) || errors.Is(err, ErrPortfolioUnresolved)
}
