package finance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestLineTotalFixed(t *testing.T) {
	item := LineItem{
		QuantityType: QuantityFixed,
		Quantity:     dec("5"),
		UnitPrice:    dec("100.00"),
	}
	require.True(t, LineTotal(item).Equal(dec("500.00")))
}

func TestLineTotalPercentage(t *testing.T) {
	// 10% of a 1000.00 base amount held in UnitPrice.
	item := LineItem{
		QuantityType: QuantityPercentage,
		Quantity:     dec("10"),
		UnitPrice:    dec("1000.00"),
	}
	require.True(t, LineTotal(item).Equal(dec("100.00")))
}

func TestTotals(t *testing.T) {
	items := []LineItem{
		{QuantityType: QuantityFixed, Quantity: dec("1"), UnitPrice: dec("200.00")},
		{QuantityType: QuantityFixed, Quantity: dec("1"), UnitPrice: dec("300.00")},
	}

	totals := Totals(items, dec("5.00"))
	require.True(t, totals.Subtotal.Equal(dec("500.00")))
	require.True(t, totals.TaxAmount.Equal(dec("25.00")))
	require.True(t, totals.GrandTotal.Equal(dec("525.00")))
}

func TestTotalsZeroTaxIsExactZero(t *testing.T) {
	items := []LineItem{
		{QuantityType: QuantityFixed, Quantity: dec("2"), UnitPrice: dec("50.00")},
	}
	totals := Totals(items, decimal.Zero)
	require.True(t, totals.TaxAmount.Equal(decimal.Zero))
	require.True(t, totals.GrandTotal.Equal(totals.Subtotal))
}

func TestSubtotalEmptyIsZero(t *testing.T) {
	require.True(t, Subtotal(nil).Equal(decimal.Zero))
}

func TestSettlement(t *testing.T) {
	s := Settlement{GrandTotal: dec("1000.00"), TotalPaid: dec("600.00")}
	require.True(t, s.AmountDue().Equal(dec("400.00")))
	require.False(t, s.Settled())

	s.TotalPaid = dec("1000.00")
	require.True(t, s.AmountDue().IsZero())
	require.True(t, s.Settled())
}

func TestSettlementWithCredits(t *testing.T) {
	s := Settlement{
		GrandTotal:    dec("1000.00"),
		TotalPaid:     dec("700.00"),
		TotalCredited: dec("300.00"),
	}
	require.True(t, s.Settled())
}

func TestMaxAdditionalCredit(t *testing.T) {
	require.True(t, MaxAdditionalCredit(dec("1000.00"), decimal.Zero).Equal(dec("1000.00")))
	require.True(t, MaxAdditionalCredit(dec("1000.00"), dec("250.00")).Equal(dec("750.00")))
}

func TestWithinTwoDecimals(t *testing.T) {
	require.True(t, WithinTwoDecimals(dec("10.25")))
	require.True(t, WithinTwoDecimals(dec("10")))
	require.False(t, WithinTwoDecimals(dec("10.255")))
}

func TestDerivationIsIdempotent(t *testing.T) {
	items := []LineItem{
		{QuantityType: QuantityFixed, Quantity: dec("3"), UnitPrice: dec("33.33")},
		{QuantityType: QuantityPercentage, Quantity: dec("12.5"), UnitPrice: dec("480.00")},
	}
	first := Totals(items, dec("5.00"))
	second := Totals(items, dec("5.00"))
	require.True(t, first.Subtotal.Equal(second.Subtotal))
	require.True(t, first.TaxAmount.Equal(second.TaxAmount))
	require.True(t, first.GrandTotal.Equal(second.GrandTotal))
}

func TestChainedSumsKeepPrecision(t *testing.T) {
	// Summed hundredths must not drift the way binary floats would.
	items := []LineItem{
		{QuantityType: QuantityFixed, Quantity: dec("0.1"), UnitPrice: dec("0.1")},
		{QuantityType: QuantityFixed, Quantity: dec("0.1"), UnitPrice: dec("0.1")},
		{QuantityType: QuantityFixed, Quantity: dec("0.1"), UnitPrice: dec("0.1")},
	}
	require.True(t, Subtotal(items).Equal(dec("0.03")))
}
