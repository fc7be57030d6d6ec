package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCompute_FreeDeliveryScenario(t *testing.T) {
	// cart = 2 x 600 -> subtotal 1200, free delivery, promise fee applies
	b := Compute([]Line{{Price: dec("600"), Quantity: 2}})

	assert.True(t, b.SubTotal.Equal(dec("1200")), "subtotal %s", b.SubTotal)
	assert.True(t, b.DeliveryCharge.IsZero(), "delivery %s", b.DeliveryCharge)
	assert.True(t, b.PromiseFee.Equal(dec("9")), "promise fee %s", b.PromiseFee)
	assert.True(t, b.GrandTotal.Equal(dec("1209")), "grand total %s", b.GrandTotal)
	assert.True(t, b.TaxableValue.Equal(dec("1024.58")), "taxable %s", b.TaxableValue)
	assert.True(t, b.GSTAmount.Equal(dec("184.42")), "gst %s", b.GSTAmount)
	assert.True(t, b.CGST.Equal(dec("92.21")), "cgst %s", b.CGST)
	assert.True(t, b.SGST.Equal(dec("92.21")), "sgst %s", b.SGST)
}

func TestCompute_DeliveryCharged(t *testing.T) {
	b := Compute([]Line{{Price: dec("499"), Quantity: 1}})

	assert.True(t, b.DeliveryCharge.Equal(dec("49")))
	assert.True(t, b.PromiseFee.IsZero())
	assert.True(t, b.GrandTotal.Equal(dec("548")))
}

func TestCompute_ThresholdBoundary(t *testing.T) {
	// exactly 1000 qualifies for free delivery
	b := Compute([]Line{{Price: dec("1000"), Quantity: 1}})

	assert.True(t, b.DeliveryCharge.IsZero())
	assert.True(t, b.PromiseFee.Equal(dec("9")))

	b = Compute([]Line{{Price: dec("999.99"), Quantity: 1}})
	assert.True(t, b.DeliveryCharge.Equal(dec("49")))
	assert.True(t, b.PromiseFee.IsZero())
}

func TestCompute_EmptyListIsZero(t *testing.T) {
	b := Compute(nil)

	for _, v := range []decimal.Decimal{
		b.SubTotal, b.TaxableValue, b.GSTAmount, b.CGST, b.SGST,
		b.DeliveryCharge, b.PromiseFee, b.GrandTotal,
	} {
		assert.True(t, v.IsZero())
	}
}

func TestCompute_Invariants(t *testing.T) {
	cases := [][]Line{
		{{Price: dec("600"), Quantity: 2}},
		{{Price: dec("49.50"), Quantity: 3}},
		{{Price: dec("333.33"), Quantity: 1}, {Price: dec("0.01"), Quantity: 7}},
		{{Price: dec("1"), Quantity: 1000}},
		{{Price: dec("999.99"), Quantity: 1}},
		{{Price: dec("1000"), Quantity: 1}},
		{{Price: dec("123456.78"), Quantity: 9}},
	}

	for _, lines := range cases {
		b := Compute(lines)

		// grand total is exactly what the fees and subtotal add up to
		sum := b.SubTotal.Add(b.DeliveryCharge).Add(b.PromiseFee).Round(2)
		require.True(t, b.GrandTotal.Equal(sum), "grand=%s sum=%s", b.GrandTotal, sum)

		// tax is extracted from the grand total, so the two parts rebuild it
		rebuilt := b.TaxableValue.Add(b.GSTAmount)
		require.True(t, b.GrandTotal.Equal(rebuilt), "grand=%s taxable+gst=%s", b.GrandTotal, rebuilt)

		// fee and waiver are mutually exclusive, triggered together
		if b.SubTotal.GreaterThanOrEqual(dec("1000")) {
			require.True(t, b.DeliveryCharge.IsZero())
			require.True(t, b.PromiseFee.IsPositive())
		} else {
			require.True(t, b.DeliveryCharge.IsPositive())
			require.True(t, b.PromiseFee.IsZero())
		}

		require.True(t, b.CGST.Equal(b.SGST))
	}
}
