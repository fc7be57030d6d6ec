package orders

import "errors"

var (
	ErrCartEmpty            = errors.New("cart is empty")
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidStatus        = errors.New("invalid order status")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrMissingPaymentProof  = errors.New("payment proof required for online payment")
	ErrForbidden            = errors.New("not allowed to access this order")
)
