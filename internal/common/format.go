package common

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// These render the human-readable forms used in log lines and wire reports:
// side/direction/lot naming plus proper decimal-string rendering of a
// fixed-point quantity, built on shopspring/decimal rather than hand-rolled
// integer/remainder splitting, without touching the fixed-point core above.

// SideName renders a Side the way a fill report would: "buy" or "sell".
func SideName(s Side) string {
	if s == Bid {
		return "buy"
	}
	return "sell"
}

// TransactionDirection names which leg of a margin account a side affects.
func TransactionDirection(s Side) string {
	if s == Bid {
		return "receive"
	}
	return "deliver"
}

// LotSideName names the kind of position a side's open lots represent.
func LotSideName(s Side) string {
	if s == Bid {
		return "long"
	}
	return "short"
}

// QuantityString renders a fixed-point quantity at the given precision as a
// decimal string, e.g. QuantityString(62500, 4) == "6.2500".
func QuantityString(quantity uint64, decimals uint8) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(quantity), -int32(decimals)).StringFixed(int32(decimals))
}
