// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"pocketratings/internal/models"
)

const (
	maxNameLen   = models.MaxNameLen
	maxBrandLen  = models.MaxBrandLen
	maxReviewLen = models.MaxReviewLen
	maxQuantity  = models.MaxQuantity
)

func invalid(err error) error {
	return badRequest("%s", err.Error())
}

// validateName trims s and checks it is present and not too long.
func validateName(field, s string, max int) (string, error) {
	s, err := models.CleanName(field, s, max)
	if err != nil {
		return "", invalid(err)
	}
	return s, nil
}

func validateRating(r float64) error {
	if err := models.CheckRating(r); err != nil {
		return invalid(err)
	}
	return nil
}

// normalizeText trims review text; empty text is stored as null.
func normalizeText(s *string) (*string, error) {
	t, err := models.CleanText(s)
	if err != nil {
		return nil, invalid(err)
	}
	return t, nil
}

func validateQuantity(q int) error {
	if err := models.CheckQuantity(q); err != nil {
		return invalid(err)
	}
	return nil
}

// parsePrice returns a price in canonical two-decimal form.
func parsePrice(s string) (string, error) {
	p, err := models.ParsePrice(s)
	if err != nil {
		return "", invalid(err)
	}
	return p, nil
}

// parseDateBound parses an optional from/to filter; see models.RangeBound.
func parseDateBound(name, s string, upper bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := models.RangeBound(s, upper)
	if err != nil {
		return nil, badRequest("%s must be YYYY-MM-DD or RFC 3339", name)
	}
	return &t, nil
}

// flexTime accepts Unix seconds, YYYY-MM-DD or an RFC 3339 string.
type flexTime struct {
	time.Time
}

func (f *flexTime) UnmarshalJSON(b []byte) error {
	var secs int64
	if err := json.Unmarshal(b, &secs); err == nil {
		f.Time = time.Unix(secs, 0).UTC()
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("time must be Unix seconds or a string")
	}
	t, _, err := models.ParseTime(s)
	if err != nil {
		return err
	}
	f.Time = t
	return nil
}
