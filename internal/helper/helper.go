package helper

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

var ErrInstrumentName = errors.New("wrong instrument name")

// Precision returns the number of decimals used to round sizes for a lot granularity:
// floor(log10(max(roundSize, 1))).
func Precision(roundSize float64) int {
	return int(math.Floor(math.Log10(math.Max(roundSize, 1))))
}

// Round rounds x to the given number of decimals, ties to even.
func Round(x float64, decimals int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	p := math.Pow(10, float64(decimals))
	return math.RoundToEven(x*p) / p
}

// Sign returns -1, 0 or +1.
func Sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

func IsFinite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// SplitInstrument splits "EXCHANGE:SYMBOL".
func SplitInstrument(name string) (exchange string, symbol string, err error) {
	i := strings.IndexByte(name, ':')
	if i <= 0 || i >= len(name)-1 {
		return "", "", errors.Wrapf(ErrInstrumentName, "%q, must be 'exchange:symbol'", name)
	}
	return strings.ToUpper(name[:i]), strings.ToUpper(name[i+1:]), nil
}

// NormSmoother normalises a smoother name.
func NormSmoother(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	if s == "" {
		return "sma"
	}
	return s
}
