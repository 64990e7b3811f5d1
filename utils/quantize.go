// SPDX-License-Identifier: EPL-2.0

package utils

import "math"

// QuantizeScale maps [-1, 1) onto the int16 range. It is the magnitude of
// math.MinInt16, not math.MaxInt16.
const QuantizeScale = 32768.0

// Quantize converts a float sample to 16-bit PCM by truncating x*32768
// towards zero.
//
// No clamping is done. Results outside the int16 range wrap modulo 2^16
// (two's complement), so Quantize(1.0) is -32768. NaN and ±Inf map to 0.
// Go leaves out-of-range float to int conversions implementation dependent,
// which is why the wrap is computed explicitly.
func Quantize(x float32) int16 {
	v := math.Trunc(float64(x) * QuantizeScale)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	return int16(int64(math.Mod(v, 65536)))
}

// QuantizeClamped is Quantize with saturation to [math.MinInt16, math.MaxInt16].
func QuantizeClamped(x float32) int16 {
	v := math.Trunc(float64(x) * QuantizeScale)
	switch {
	case math.IsNaN(v):
		return 0
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	}

	return int16(v)
}

// QuantizeInto converts src into dst and returns the number of samples
// written, which is min(len(dst), len(src)).
func QuantizeInto(dst []int16, src []float32, clamp bool) int {
	n := min(len(dst), len(src))
	if clamp {
		for i := range n {
			dst[i] = QuantizeClamped(src[i])
		}
		return n
	}

	for i := range n {
		dst[i] = Quantize(src[i])
	}
	return n
}
