// Package stats holds the statistical core shared by every anomaly
// granularity and the feature builder: arithmetic mean, sample standard
// deviation, and z-scores.
//
// Degenerate inputs are defined, not errors: an empty series has
// mean=std=0, a single-point series has std=0, and any point measured
// against std=0 has z-score 0 (and can therefore never be anomalous).
package stats

import "math"

// Mean returns the arithmetic mean of values, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SampleStd returns the sample standard deviation (n-1 divisor) of values.
// Series with fewer than two points have no spread and return 0.
func SampleStd(values []float64, mean float64) float64 {
	n := len(values)
	if n <= 1 {
		return 0
	}
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// Describe computes mean and sample std in one pass over values.
func Describe(values []float64) (mean, std float64) {
	mean = Mean(values)
	std = SampleStd(values, mean)
	return mean, std
}

// ZScore measures how many standard deviations x sits from mean.
// When std is 0 every point equals the mean, so the z-score is 0.
func ZScore(x, mean, std float64) float64 {
	if std <= 0 {
		return 0
	}
	return (x - mean) / std
}
