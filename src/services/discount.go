package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var discountCodePattern = regexp.MustCompile(`^\d+%?$`)

var rewardRate = decimal.RequireFromString("0.1")

// CalculateDiscount turns a discount code into an amount off base. "N%" is a
// floored percentage of base; anything else is read as a flat amount and is
// not clamped to base. Unparsable codes yield 0.
func CalculateDiscount(code string, base int64) int64 {
	code = strings.TrimSpace(code)
	if pct, ok := strings.CutSuffix(code, "%"); ok {
		p, err := decimal.NewFromString(pct)
		if err != nil {
			return 0
		}
		return decimal.NewFromInt(base).
			Mul(p).
			Div(decimal.NewFromInt(100)).
			Floor().
			IntPart()
	}
	flat, err := strconv.ParseInt(code, 10, 64)
	if err != nil {
		return 0
	}
	return flat
}

func IsDiscountCode(code string) bool {
	return discountCodePattern.MatchString(code)
}

// PointReward is the number of points earned on a confirmed purchase.
func PointReward(total int64) int64 {
	if total <= 0 {
		return 0
	}
	return decimal.NewFromInt(total).Mul(rewardRate).Floor().IntPart()
}

// TotalPrice applies the combined discount and never goes below zero.
func TotalPrice(original, discount int64) int64 {
	if total := original - discount; total > 0 {
		return total
	}
	return 0
}
