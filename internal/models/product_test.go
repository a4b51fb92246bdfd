// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "testing"

func TestProductMatches(t *testing.T) {
	p := &Product{Brand: "Alpro", Name: "Oat Drink Barista"}

	tests := []struct {
		q    string
		want bool
	}{
		{"", true},
		{"alpro", true},
		{"BARISTA", true},
		{"oat d", true},
		{"soy", false},
	}
	for _, tt := range tests {
		if got := p.Matches(tt.q); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.q, got, tt.want)
		}
	}
}
