package analysis

import "math"

// mean returns the arithmetic mean, or 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev returns the population standard deviation.
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sq float64
	for _, v := range values {
		sq += (v - m) * (v - m)
	}
	return math.Sqrt(sq / float64(len(values)))
}

// coefficientOfVariation is stddev/mean; 0 when the mean is 0.
func coefficientOfVariation(values []float64) float64 {
	m := mean(values)
	if m == 0 {
		return 0
	}
	return stddev(values) / math.Abs(m)
}

// olsSlope fits y = a + b*x with x = 0..n-1 and returns b.
func olsSlope(values []float64) float64 {
	n := float64(len(values))
	if len(values) < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// normalizedSlope is the OLS slope divided by the mean: a dimensionless rate per observation.
func normalizedSlope(values []float64) float64 {
	m := mean(values)
	if m == 0 {
		return 0
	}
	return olsSlope(values) / m
}

// lastN returns the trailing n elements.
func lastN(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// round2 rounds to two decimals for display fields.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
