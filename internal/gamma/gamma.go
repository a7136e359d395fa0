// Package gamma converts between sampled CRTC gamma tables and the power-law
// parameters (one exponent per channel plus brightness) used to build them.
//
// A sample i of an n-entry table is modelled as
//
//	65535 * (i/n)^exponent * brightness
package gamma

import "math"

const (
	saturated = 0xffff
	// darkThreshold is the normalized reference value below which the
	// table is treated as fully black.
	darkThreshold = 0.0001
)

// Curve is a power-law gamma setting.
type Curve struct {
	Red, Green, Blue float64
	Brightness       float64
}

// Identity is linear gamma at full brightness.
func Identity() Curve {
	return Curve{Red: 1, Green: 1, Blue: 1, Brightness: 1}
}

// lastUnsaturated returns the highest index whose sample is below 0xffff,
// or 0 when every sample from index 1 up is saturated.
func lastUnsaturated(ch []uint16) int {
	for i := len(ch) - 1; i > 0; i-- {
		if ch[i] < saturated {
			return i
		}
	}
	return 0
}

func fraction(i, size int) float64 {
	return float64(i) / float64(size)
}

func normalized(v uint16) float64 {
	return float64(v) / saturated
}

// Estimate reconstructs a Curve from three equally sized channel tables.
// Tables shorter than four samples carry too little information and yield
// Identity.
func Estimate(red, green, blue []uint16) Curve {
	size := len(red)
	if size < 4 || len(green) != size || len(blue) != size {
		return Identity()
	}

	channels := [3][]uint16{red, green, blue}
	var last [3]int
	ref := 0
	for c, ch := range channels {
		last[c] = lastUnsaturated(ch)
		if last[c] > last[ref] {
			ref = c
		}
	}

	refLast := last[ref]
	if refLast < 2 {
		refLast = 2
	}
	refMiddle := refLast / 2

	i1, v1 := fraction(refMiddle, size), normalized(channels[ref][refMiddle])
	i2, v2 := fraction(refLast, size), normalized(channels[ref][refLast])

	if v2 < darkThreshold {
		return Curve{Red: 1, Green: 1, Blue: 1, Brightness: 0}
	}

	// A dim table can round its middle sample down to zero; the reference
	// sample alone then stands in for brightness.
	brightness := v2
	if v1 > 0 {
		brightness = math.Exp((math.Log(v2)*math.Log(i1) - math.Log(v1)*math.Log(i2)) / math.Log(i1/i2))
	}

	var exps [3]float64
	for c, ch := range channels {
		mid := last[c] / 2
		if mid < 1 {
			mid = 1
		}
		v := normalized(ch[mid])
		if v <= 0 {
			exps[c] = 1
			continue
		}
		exps[c] = math.Log(v/brightness) / math.Log(fraction(mid, size))
	}

	return Curve{Red: exps[0], Green: exps[1], Blue: exps[2], Brightness: brightness}
}

// Ramp builds an n-entry table per channel from a Curve. It is the inverse
// of Estimate.
func Ramp(size int, c Curve) (red, green, blue []uint16) {
	return channel(size, c.Red, c.Brightness),
		channel(size, c.Green, c.Brightness),
		channel(size, c.Blue, c.Brightness)
}

func channel(size int, exponent, brightness float64) []uint16 {
	out := make([]uint16, size)
	if brightness > 1 {
		brightness = 1
	}
	for i := range out {
		v := math.Pow(fraction(i, size), exponent) * brightness * saturated
		switch {
		case v >= saturated:
			out[i] = saturated
		case v <= 0:
			out[i] = 0
		default:
			out[i] = uint16(math.Round(v))
		}
	}
	return out
}
