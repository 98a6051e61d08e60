package stats

import (
	"math"
	"testing"
)

const tolerance = 1e-9

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestMean(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{42}, 42},
		{"uniform", []float64{5, 5, 5}, 5},
		{"mixed", []float64{10, 12, 100}, 122.0 / 3.0},
		{"negative", []float64{-10, 10}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mean(tt.values); !almostEqual(got, tt.want, tolerance) {
				t.Errorf("Mean(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestSampleStd(t *testing.T) {
	t.Run("empty series", func(t *testing.T) {
		if got := SampleStd(nil, 0); got != 0 {
			t.Errorf("SampleStd(nil) = %v, want 0", got)
		}
	})

	t.Run("single point is exactly zero", func(t *testing.T) {
		if got := SampleStd([]float64{17.5}, 17.5); got != 0 {
			t.Errorf("SampleStd of one point = %v, want 0", got)
		}
	})

	t.Run("uniform series", func(t *testing.T) {
		if got := SampleStd([]float64{3, 3, 3, 3}, 3); got != 0 {
			t.Errorf("SampleStd of uniform series = %v, want 0", got)
		}
	})

	t.Run("divides by n-1", func(t *testing.T) {
		// Known: values {2, 4} have mean 3, sample variance (1+1)/1 = 2.
		got := SampleStd([]float64{2, 4}, 3)
		if want := math.Sqrt(2); !almostEqual(got, want, tolerance) {
			t.Errorf("SampleStd({2,4}) = %v, want %v", got, want)
		}
	})
}

func TestZScore(t *testing.T) {
	t.Run("value at mean is zero", func(t *testing.T) {
		if got := ZScore(40, 40, 12.3); got != 0 {
			t.Errorf("ZScore(mean) = %v, want 0", got)
		}
	})

	t.Run("zero std yields zero regardless of distance", func(t *testing.T) {
		if got := ZScore(1e9, 0, 0); got != 0 {
			t.Errorf("ZScore with std=0 = %v, want 0", got)
		}
	})

	t.Run("scales linearly", func(t *testing.T) {
		if got := ZScore(30, 10, 10); !almostEqual(got, 2, tolerance) {
			t.Errorf("ZScore(30,10,10) = %v, want 2", got)
		}
		if got := ZScore(-10, 10, 10); !almostEqual(got, -2, tolerance) {
			t.Errorf("ZScore(-10,10,10) = %v, want -2", got)
		}
	})
}

// The three-point series from the product scenario: a single large value
// among three points stays below a z=2 threshold because the sample std
// is inflated by the outlier itself.
func TestDescribeThreePointScenario(t *testing.T) {
	values := []float64{10, 12, 100}

	mean, std := Describe(values)

	if want := 122.0 / 3.0; !almostEqual(mean, want, 1e-9) {
		t.Fatalf("mean = %v, want %v", mean, want)
	}
	// Sample variance with n-1 = 2 in the divisor: 5282.67/2, std ~51.39.
	if !almostEqual(std, math.Sqrt(5282.666666666667/2), 1e-6) {
		t.Fatalf("std = %v, want ~51.39", std)
	}

	z := ZScore(100, mean, std)
	if !almostEqual(z, 1.1545, 0.001) {
		t.Fatalf("z(100) = %v, want ~1.15", z)
	}
	if math.Abs(z) >= 2.0 {
		t.Fatalf("z(100) = %v crosses threshold 2.0; it must not", z)
	}
}
