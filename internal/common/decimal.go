package common

import (
	"math"

	"fenrir/internal/coreerr"
)

// ChangeDecimals rescales quantity from a representation with `from` decimal
// places to one with `to` decimal places, truncating on narrowing. It is the
// only place precision conversions between a market's own precision and an
// asset's canonical precision happen.
func ChangeDecimals(quantity uint64, from, to uint8) (uint64, error) {
	if to >= from {
		factor, err := checkedPow10(to - from)
		if err != nil {
			return 0, err
		}
		return checkedMul(quantity, factor)
	}
	factor, err := checkedPow10(from - to)
	if err != nil {
		return 0, err
	}
	return quantity / factor, nil
}

// CalculateValue computes floor(quantity * price / 10^baseDecimals)
// expressed at quoteDecimals, staying inside u64 throughout via a four-way
// split of both operands instead of a 128-bit intermediate.
func CalculateValue(quantity, price uint64, baseDecimals, quoteDecimals uint8) (uint64, error) {
	kBase, err := checkedPow10(baseDecimals)
	if err != nil {
		return 0, err
	}
	kQuote, err := checkedPow10(quoteDecimals)
	if err != nil {
		return 0, err
	}

	aBase, bBase := quantity/kBase, quantity%kBase
	aQuote, bQuote := price/kQuote, price%kQuote

	a, err := checkedMul(aBase, aQuote)
	if err != nil {
		return 0, err
	}
	b, err := checkedMul(aBase, bQuote)
	if err != nil {
		return 0, err
	}
	c, err := checkedMul(aQuote, bBase)
	if err != nil {
		return 0, err
	}
	d, err := checkedMul(bBase, bQuote)
	if err != nil {
		return 0, err
	}

	sum1, err := checkedMul(a, kQuote)
	if err != nil {
		return 0, err
	}
	sum1, err = checkedAdd(sum1, b)
	if err != nil {
		return 0, err
	}

	sum2, err := checkedMul(c, kQuote)
	if err != nil {
		return 0, err
	}
	sum2, err = checkedAdd(sum2, d)
	if err != nil {
		return 0, err
	}

	return checkedAdd(sum1, sum2/kBase)
}

func checkedPow10(exp uint8) (uint64, error) {
	var result uint64 = 1
	for i := uint8(0); i < exp; i++ {
		var err error
		result, err = checkedMul(result, 10)
		if err != nil {
			return 0, err
		}
	}
	return result, nil
}

func checkedMul(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a > math.MaxUint64/b {
		return 0, coreerr.ErrArithmeticOverflow
	}
	return a * b, nil
}

func checkedAdd(a, b uint64) (uint64, error) {
	if b > math.MaxUint64-a {
		return 0, coreerr.ErrArithmeticOverflow
	}
	return a + b, nil
}
