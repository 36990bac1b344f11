package domain

import "github.com/shopspring/decimal"

var zatoshisPerZec = decimal.NewFromInt(ZatoshisPerZec)

// Zatoshi is an amount expressed in the smallest unit of the chain. Every
// accumulated or persisted amount is kept in this form; conversion to ZEC
// only happens when presenting it.
type Zatoshi uint64

// ZEC returns the amount as a decimal number of coins.
func (z Zatoshi) ZEC() decimal.Decimal {
	return decimal.NewFromInt(int64(z)).Div(zatoshisPerZec)
}

// String returns the amount in ZEC with 8 decimal digits.
func (z Zatoshi) String() string {
	return z.ZEC().StringFixed(8)
}

// ZatoshiFromZEC converts a decimal amount of coins into zatoshis,
// truncating any digit beyond the 8th.
func ZatoshiFromZEC(amount decimal.Decimal) Zatoshi {
	if amount.IsNegative() {
		return 0
	}
	return Zatoshi(amount.Mul(zatoshisPerZec).Truncate(0).IntPart())
}
