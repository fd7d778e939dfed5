package events

import (
	"math/big"
	"strconv"
)

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func formatBool(v bool) string {
	return strconv.FormatBool(v)
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
