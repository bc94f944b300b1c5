package structure

import (
	"testing"

	"github.com/Matswm86/Core/internal/store"
)

// TestNearestZone_ReturnsEdgesNotMidpoint pins down that nearestZone
// exposes a zone's actual [Low,High] boundary prices, never the average
// of the two, since SL/TP construction reads a specific edge depending
// on the trade action.
func TestNearestZone_ReturnsEdgesNotMidpoint(t *testing.T) {
	cases := []struct {
		name      string
		zones     []store.Zone
		price     float64
		wantLow   float64
		wantHigh  float64
		wantInside bool
	}{
		{
			name:      "wide zone below price",
			zones:     []store.Zone{{PriceLow: 1.0800, PriceHigh: 1.0850}},
			price:     1.0900,
			wantLow:   1.0800,
			wantHigh:  1.0850,
			wantInside: false,
		},
		{
			name:      "wide zone containing price",
			zones:     []store.Zone{{PriceLow: 1.0800, PriceHigh: 1.0900}},
			price:     1.0850,
			wantLow:   1.0800,
			wantHigh:  1.0900,
			wantInside: true,
		},
		{
			name: "closest of two zones by midpoint distance",
			zones: []store.Zone{
				{PriceLow: 1.0700, PriceHigh: 1.0720},
				{PriceLow: 1.0900, PriceHigh: 1.0940},
			},
			price:     1.0850,
			wantLow:   1.0900,
			wantHigh:  1.0940,
			wantInside: false,
		},
		{
			name:      "invalidated zone is skipped",
			zones:     []store.Zone{{PriceLow: 1.0800, PriceHigh: 1.0850, Invalidated: true}},
			price:     1.0825,
			wantLow:   0,
			wantHigh:  0,
			wantInside: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, inside := nearestZone(tc.zones, tc.price)
			if inside != tc.wantInside {
				t.Fatalf("inside = %v, want %v", inside, tc.wantInside)
			}
			if tc.wantLow == 0 && tc.wantHigh == 0 {
				if got != nil {
					t.Fatalf("expected no non-invalidated zone, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected a zone, got nil")
			}
			if got.Low != tc.wantLow || got.High != tc.wantHigh {
				t.Fatalf("nearestZone returned {%.5f,%.5f}, want {%.5f,%.5f} (not the midpoint %.5f)",
					got.Low, got.High, tc.wantLow, tc.wantHigh, (tc.wantLow+tc.wantHigh)/2)
			}
		})
	}
}
