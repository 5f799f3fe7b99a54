package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrShippingPolicyMissing is the precondition violation raised when a
	// physical product is priced without a shipping policy.
	ErrShippingPolicyMissing = errors.New("shipping policy not set")
	// ErrProductNotFound is returned when no live product has the requested ID.
	ErrProductNotFound = errors.New("product not found")
	// ErrCategoryNotFound is returned when no category has the requested ID.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrDuplicateID is returned when a requested product ID is already taken.
	ErrDuplicateID = errors.New("product id already in use")
	// ErrInvalidProduct wraps field validation failures.
	ErrInvalidProduct = errors.New("invalid product")
	// ErrUnknownShippingPolicy is returned when a shipping policy ID cannot be resolved.
	ErrUnknownShippingPolicy = errors.New("unknown shipping policy")
)

// MissingShippingPolicyError names the physical product that has no shipping policy.
type MissingShippingPolicyError struct {
	ProductID   string
	ProductName string
}

// Error implements the error interface.
func (e *MissingShippingPolicyError) Error() string {
	return fmt.Sprintf("shipping policy not set for product %q (%s)", e.ProductName, e.ProductID)
}

// Unwrap lets errors.Is match ErrShippingPolicyMissing.
func (e *MissingShippingPolicyError) Unwrap() error { return ErrShippingPolicyMissing }
