package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dotcomdgadgets/dotcombackend/internal/pricing"
)

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "COD"
	PaymentOnline PaymentMethod = "Online"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentRefunded PaymentStatus = "Refunded"
)

// Line is an order line item. It is a value snapshot taken at order time
// and never changes afterwards, whatever happens to the product.
type Line struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName,omitempty"` // resolved at read time
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"priceAtOrderTime"`
	Size        string          `json:"size,omitempty"`
}

// AddressSnapshot is a full copy of the shipping address at order time,
// detached from the user's live address book.
type AddressSnapshot struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	HouseNo  string `json:"houseNo"`
	Area     string `json:"area"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
	Landmark string `json:"landmark,omitempty"`
}

// Order is immutable after creation except for Status and PaymentStatus.
type Order struct {
	ID               string            `json:"id"`
	UserID           string            `json:"userId"`
	Items            []Line            `json:"items"`
	Address          AddressSnapshot   `json:"address"`
	PaymentMethod    PaymentMethod     `json:"paymentMethod"`
	PaymentStatus    PaymentStatus     `json:"paymentStatus"`
	Status           Status            `json:"orderStatus"`
	Breakdown        pricing.Breakdown `json:"priceBreakdown"`
	GatewayOrderID   string            `json:"gatewayOrderId,omitempty"`
	GatewayPaymentID string            `json:"gatewayPaymentId,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}
