package pricing

import "github.com/shopspring/decimal"

// Product prices already include GST; tax is extracted backward from the
// grand total, never added on top.
const GSTRatePercent = 18

var (
	freeDeliveryThreshold = decimal.NewFromInt(1000)
	deliveryFlatCharge    = decimal.NewFromInt(49)
	promiseFlatFee        = decimal.NewFromInt(9)

	gstDivisor = decimal.NewFromInt(100 + GSTRatePercent).Div(decimal.NewFromInt(100))
	two        = decimal.NewFromInt(2)
)

// Line is a priced order line as seen at order time.
type Line struct {
	Price    decimal.Decimal
	Quantity int
}

// Breakdown decomposes the amount the customer pays. GrandTotal is the
// final charged amount; TaxableValue + GSTAmount reconstruct it.
type Breakdown struct {
	SubTotal       decimal.Decimal `json:"subTotal"`
	TaxableValue   decimal.Decimal `json:"taxableValue"`
	GSTAmount      decimal.Decimal `json:"gstAmount"`
	CGST           decimal.Decimal `json:"cgst"`
	SGST           decimal.Decimal `json:"sgst"`
	DeliveryCharge decimal.Decimal `json:"deliveryCharge"`
	PromiseFee     decimal.Decimal `json:"promiseFee"`
	GrandTotal     decimal.Decimal `json:"grandTotal"`
}

// Compute prices a list of order lines. Pure, never fails; an empty list
// yields the zero breakdown. The promise fee is charged exactly when
// delivery is waived.
func Compute(lines []Line) Breakdown {
	if len(lines) == 0 {
		return zeroBreakdown()
	}

	subTotal := decimal.Zero
	for _, l := range lines {
		subTotal = subTotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	deliveryCharge := deliveryFlatCharge
	promiseFee := decimal.Zero
	if subTotal.GreaterThanOrEqual(freeDeliveryThreshold) {
		deliveryCharge = decimal.Zero
		promiseFee = promiseFlatFee
	}

	grandTotal := subTotal.Add(deliveryCharge).Add(promiseFee).Round(2)

	taxableValue := grandTotal.Div(gstDivisor).Round(2)
	gstAmount := grandTotal.Sub(taxableValue).Round(2)
	cgst := gstAmount.Div(two).Round(2)
	sgst := cgst

	return Breakdown{
		SubTotal:       subTotal.Round(2),
		TaxableValue:   taxableValue,
		GSTAmount:      gstAmount,
		CGST:           cgst,
		SGST:           sgst,
		DeliveryCharge: deliveryCharge,
		PromiseFee:     promiseFee,
		GrandTotal:     grandTotal,
	}
}

func zeroBreakdown() Breakdown {
	z := decimal.Zero
	return Breakdown{
		SubTotal: z, TaxableValue: z, GSTAmount: z, CGST: z, SGST: z,
		DeliveryCharge: z, PromiseFee: z, GrandTotal: z,
	}
}
