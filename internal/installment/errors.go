package installment

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrAmountExceedsBalance    = errors.New("amount exceeds remaining balance")
	ErrContractAlreadyComplete = errors.New("contract already complete")
	ErrIllFormedContract       = errors.New("ill-formed contract")
	ErrAllocationResidual      = errors.New("amount could not be fully allocated")
)

// BalanceError reports an over-limit amount together with the maximum accepted.
type BalanceError struct {
	MaxAllowed decimal.Decimal
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("%s: maximum allowed is %s", ErrAmountExceedsBalance, e.MaxAllowed.StringFixed(2))
}

func (e *BalanceError) Unwrap() error {
	return ErrAmountExceedsBalance
}
