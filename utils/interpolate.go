// SPDX-License-Identifier: EPL-2.0

package utils

// CubicInterpolate evaluates the Catmull-Rom spline through y0..y3 at x,
// where x in [0, 1] is the fractional position between y1 and y2.
func CubicInterpolate(y0, y1, y2, y3, x float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1

	return ((a0*x+a1)*x+a2)*x + a3
}

// LowPass runs one step of a one-pole low-pass filter:
// y[n] = alpha*x[n] + (1-alpha)*y[n-1].
func LowPass(prev, x, alpha float32) float32 {
	return alpha*x + (1-alpha)*prev
}
