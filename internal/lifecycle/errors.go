package lifecycle

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("invalid order submission")
	ErrPublish    = errors.New("event publish failed")
)

// InsufficientInventoryError reports a conditional decrement whose
// quantity >= requested precondition failed.
type InsufficientInventoryError struct {
	ProductID string
	Requested int64
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for product %s", e.ProductID)
}

// UnknownProductError reports an inventory adjustment against a product that
// was never provisioned.
type UnknownProductError struct {
	ProductID string
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("unknown product %s", e.ProductID)
}
