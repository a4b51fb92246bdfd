// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgtype"
)

// Field limits shared by the REST API and the command line.
const (
	MaxNameLen   = 200
	MaxBrandLen  = 200
	MaxReviewLen = 10_000
	MaxQuantity  = 1_000_000
)

// CleanName trims s and checks it is present and at most max runes long.
func CleanName(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%s is required", field)
	}
	if utf8.RuneCountInString(s) > max {
		return "", fmt.Errorf("%s is too long (max %d characters)", field, max)
	}
	return s, nil
}

// CheckRating wraps ValidRating with a readable error.
func CheckRating(r float64) error {
	if !ValidRating(r) {
		return fmt.Errorf("rating must be between %.0f and %.0f with at most one decimal", MinRating, MaxRating)
	}
	return nil
}

// CleanText trims review text; blank text becomes nil.
func CleanText(s *string) (*string, error) {
	if s == nil {
		return nil, nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(t) > MaxReviewLen {
		return nil, fmt.Errorf("text is too long (max %d characters)", MaxReviewLen)
	}
	return &t, nil
}

func CheckQuantity(q int) error {
	if q < 1 || q > MaxQuantity {
		return fmt.Errorf("quantity must be between 1 and %d", MaxQuantity)
	}
	return nil
}

var (
	priceShape = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

	// maxPrice is the first value NUMERIC(12,2) cannot hold, in cents.
	maxPrice = new(big.Int).Exp(big.NewInt(10), big.NewInt(12), nil)

	errPriceShape = errors.New("price must be a decimal number such as 3.49")
)

// ParsePrice validates a decimal price string and returns it in canonical
// form with exactly two fractional digits ("3.5" becomes "3.50").
func ParsePrice(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !priceShape.MatchString(s) {
		return "", errPriceShape
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil || !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite {
		return "", errPriceShape
	}
	if n.Int.Sign() < 0 {
		return "", errors.New("price must not be negative")
	}

	// Drop trailing fractional zeros so "1.500" counts as two decimals.
	digits := new(big.Int).Set(n.Int)
	exp := n.Exp
	ten := big.NewInt(10)
	rem := new(big.Int)
	if digits.Sign() == 0 {
		exp = 0
	}
	for exp < 0 {
		q, r := new(big.Int).QuoRem(digits, ten, rem)
		if r.Sign() != 0 {
			break
		}
		digits, exp = q, exp+1
	}
	if exp < -2 {
		return "", errors.New("price must have at most two decimal places")
	}

	cents := new(big.Int).Mul(digits, new(big.Int).Exp(ten, big.NewInt(int64(exp+2)), nil))
	if cents.Cmp(maxPrice) >= 0 {
		return "", errors.New("price is too large")
	}
	whole, frac := new(big.Int).QuoRem(cents, big.NewInt(100), new(big.Int))
	return fmt.Sprintf("%s.%02d", whole.String(), frac.Int64()), nil
}

// DateLayout is the bare-date form accepted wherever a time is.
const DateLayout = "2006-01-02"

// ParseTime accepts YYYY-MM-DD (midnight UTC) or RFC 3339. The second
// result reports whether s was a bare date.
func ParseTime(s string) (time.Time, bool, error) {
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("time %q must be YYYY-MM-DD or RFC 3339", s)
	}
	return t, false, nil
}

// RangeBound turns a from/to filter value into an instant. A bare date
// selects the whole day in UTC: a lower bound is its start, an upper
// bound the start of the next day. Upper bounds are exclusive, so an
// exact RFC 3339 upper bound is moved forward by a nanosecond.
func RangeBound(s string, upper bool) (time.Time, error) {
	t, bare, err := ParseTime(s)
	if err != nil {
		return time.Time{}, err
	}
	switch {
	case upper && bare:
		t = t.AddDate(0, 0, 1)
	case upper:
		t = t.Add(time.Nanosecond)
	}
	return t, nil
}
