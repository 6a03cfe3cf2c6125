// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and decimal text representations. Amounts
// travel over the wire either as JSON numbers (periods) or decimal strings
// (transactions); both decode into the same Amount.
package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Amount is a signed monetary value stored as integer cents.
type Amount struct {
	Cents int64
}

// Cents builds an Amount from a cent count.
func Cents(c int64) Amount { return Amount{Cents: c} }

// ParseAmount converts a decimal string to a signed Amount with half-up rounding.
//
// It accepts an optional sign, an optional leading currency symbol and
// thousands separators. The fractional part is rounded half-up (away from
// zero) on the third decimal place.
//
// Examples:
//
//	ParseAmount("12.34")     -> 1234
//	ParseAmount("-300")      -> -30000
//	ParseAmount("1,234.565") -> 123457
//	ParseAmount("$8")        -> 800
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, ErrInvalidAmount
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return Amount{}, ErrInvalidAmount
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Amount{}, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	if intPart == "0" && fracPart == "" && len(parts) == 2 {
		return Amount{}, ErrInvalidAmount
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return Amount{}, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Amount{}, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64-1 {
		return Amount{}, ErrInvalidAmount
	}

	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}

	cents := iv*100 + fracCents
	if neg {
		cents = -cents
	}
	return Amount{Cents: cents}, nil
}

// MustAmount parses s and panics on error. Intended for fixtures and constants.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(fmt.Sprintf("core: invalid amount %q", s))
	}
	return a
}

// Add returns a+b.
func (a Amount) Add(b Amount) Amount { return Amount{Cents: a.Cents + b.Cents} }

// Abs returns the absolute value.
func (a Amount) Abs() Amount {
	if a.Cents < 0 {
		return Amount{Cents: -a.Cents}
	}
	return a
}

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool { return a.Cents == 0 }

// String formats the amount as plain decimal text ("-12.50").
func (a Amount) String() string {
	c := a.Cents
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// Float returns the value as a float64 for display purposes only.
// Use cents for calculations to avoid floating-point precision issues.
func (a Amount) Float() float64 {
	return float64(a.Cents) / 100.0
}

// MarshalJSON always encodes as a decimal string to avoid precision loss.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a JSON number or a decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = Amount{}
		return nil
	}
	var text string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return fmt.Errorf("amount: %w", err)
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("amount: expected number or decimal string, got %s", string(data))
		}
		text = n.String()
	}
	parsed, err := parseJSONNumberText(text)
	if err != nil {
		return fmt.Errorf("amount %q: %w", text, err)
	}
	*a = parsed
	return nil
}

// parseJSONNumberText tolerates exponent notation emitted by some encoders
// ("1e3", "2.5E+2") before falling back to ParseAmount.
func parseJSONNumberText(text string) (Amount, error) {
	if strings.ContainsAny(text, "eE") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Amount{}, ErrInvalidAmount
		}
		return ParseAmount(strconv.FormatFloat(f, 'f', 3, 64))
	}
	return ParseAmount(text)
}
