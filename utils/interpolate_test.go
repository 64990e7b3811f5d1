// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"math"
	"testing"
)

func TestCubicInterpolate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		y0, y1, y2, y3 float32
		x              float32
		want           float32
		tolerance      float32
	}{
		{name: "x=0 returns y1", y0: 0, y1: 1, y2: 2, y3: 3, x: 0, want: 1, tolerance: 0.001},
		{name: "x=1 returns y2", y0: 0, y1: 1, y2: 2, y3: 3, x: 1, want: 2, tolerance: 0.001},
		{name: "linear data stays linear", y0: 1, y1: 2, y2: 3, y3: 4, x: 0.25, want: 2.25, tolerance: 0.001},
		{name: "zero crossing", y0: -1, y1: -0.5, y2: 0.5, y3: 1, x: 0.5, want: 0, tolerance: 0.01},
		{name: "silence", y0: 0, y1: 0, y2: 0, y3: 0, x: 0.5, want: 0, tolerance: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := CubicInterpolate(tt.y0, tt.y1, tt.y2, tt.y3, tt.x)
			diff := float32(math.Abs(float64(got - tt.want)))

			if diff > tt.tolerance {
				t.Errorf("CubicInterpolate() = %v, want %v (tolerance %v, diff %v)",
					got, tt.want, tt.tolerance, diff)
			}
		})
	}
}

func TestCubicInterpolate_Endpoints(t *testing.T) {
	t.Parallel()

	for i := range 100 {
		y0, y1, y2, y3 := float32(i), float32(i+1), float32(i+2), float32(i+3)

		if got := CubicInterpolate(y0, y1, y2, y3, 0); got != y1 {
			t.Errorf("x=0 should return y1=%v, got %v", y1, got)
		}
		if got := CubicInterpolate(y0, y1, y2, y3, 1); got != y2 {
			t.Errorf("x=1 should return y2=%v, got %v", y2, got)
		}
	}
}

func TestLowPass(t *testing.T) {
	t.Parallel()

	// A constant input converges to itself.
	var y float32
	for range 64 {
		y = LowPass(y, 0.8, 0.5)
	}
	if math.Abs(float64(y-0.8)) > 1e-6 {
		t.Errorf("LowPass converged to %v, want 0.8", y)
	}

	if got := LowPass(0.2, 0.6, 1); got != 0.6 {
		t.Errorf("LowPass(alpha=1) = %v, want pass-through 0.6", got)
	}
}

func BenchmarkCubicInterpolate(b *testing.B) {
	var result float32
	y0, y1, y2, y3 := float32(0.5), float32(1.0), float32(0.8), float32(0.3)

	b.ReportAllocs()

	for i := range b.N {
		result = CubicInterpolate(y0, y1, y2, y3, float32(i%100)/100)
	}

	_ = result
}
