// Package curve computes mean-max curves from per-second signal series and
// fits parametric duration models to them.
package curve

import (
	"math"

	"fitengine/internal/activity"
)

// MeanMax computes the mean-max curve of a per-second series: for each
// window length d from 1 to len(samples), the maximum mean over all windows
// of exactly d consecutive valid samples. NaN marks a missing sample; any
// window touching one is excluded, and durations with no valid window are
// omitted from the result rather than reported as zero.
func MeanMax(samples []float64) []activity.MeanMaxPoint {
	n := len(samples)
	if n == 0 {
		return nil
	}

	// Prefix sums over values and valid-sample counts. NaNs contribute
	// zero to the sum so windows can be validated by count alone.
	sum := make([]float64, n+1)
	valid := make([]int, n+1)
	for i, v := range samples {
		sum[i+1] = sum[i]
		valid[i+1] = valid[i]
		if !math.IsNaN(v) {
			sum[i+1] += v
			valid[i+1]++
		}
	}

	var points []activity.MeanMaxPoint
	for d := 1; d <= n; d++ {
		best := math.Inf(-1)
		found := false
		for start := 0; start+d <= n; start++ {
			if valid[start+d]-valid[start] != d {
				continue
			}
			mean := (sum[start+d] - sum[start]) / float64(d)
			if mean > best {
				best = mean
				found = true
			}
		}
		if found {
			points = append(points, activity.MeanMaxPoint{Duration: d, Value: best})
		}
	}
	return points
}
