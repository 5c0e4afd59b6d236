package utils

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

var (
	// MaxUint256 is 2^256 - 1.
	MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	errNotNumber   = errors.New("not a number")
	errNotFinite   = errors.New("not a finite number")
	errNegative    = errors.New("negative values are not allowed")
	errFractional  = errors.New("value must be a whole number")
	errOutOfBounds = errors.New("value does not fit in uint256")
)

// ParseUint256 parses user input for a uint256 argument.
// It takes decimal integers, 0x hex, and float notation such as "1e3" or "42.0"
// as long as the result is a finite non-negative whole number that fits in 256 bits.
func ParseUint256(input string) (*big.Int, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil, errNotNumber
	}

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, ok := new(big.Int).SetString(s[2:], 16)
		if !ok || s[2:] == "" {
			return nil, fmt.Errorf("%q: %w", input, errNotNumber)
		}
		return checkRange(v)
	}

	if v, ok := new(big.Int).SetString(s, 10); ok {
		return checkRange(v)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return nil, fmt.Errorf("%q: %w", input, errOutOfBounds)
		}
		return nil, fmt.Errorf("%q: %w", input, errNotNumber)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("%q: %w", input, errNotFinite)
	}

	// Exact decimal form for things like "1e30" that float64 cannot hold exactly.
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("%q: %w", input, errNotNumber)
	}
	if !r.IsInt() {
		return nil, fmt.Errorf("%q: %w", input, errFractional)
	}
	return checkRange(new(big.Int).Set(r.Num()))
}

func checkRange(v *big.Int) (*big.Int, error) {
	if v.Sign() < 0 {
		return nil, errNegative
	}
	if v.Cmp(MaxUint256) > 0 {
		return nil, errOutOfBounds
	}
	return v, nil
}

// FormatValue renders a contract value for display. A nil value renders blank.
func FormatValue(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}
