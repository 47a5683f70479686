package payments

import "math"

// Default platform cuts. Licenses carry a 10% fee, tips 5%. The fee is
// rounded to the nearest dollar and never persisted; only the net
// creator amount is credited.
const (
	DefaultLicenseFeeRate = 0.10
	DefaultTipFeeRate     = 0.05
)

// SplitAmount divides a gross dollar amount into the platform fee and
// the net creator amount at the given rate.
func SplitAmount(gross, rate float64) (fee, net float64) {
	fee = math.Round(gross * rate)
	net = gross - fee
	return fee, net
}
