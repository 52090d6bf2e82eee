package f1

import (
	"math"
	"slices"
	"sort"
)

// Downsample reduces a lap trace to at most limit points while keeping the
// interesting ones. Half the budget goes to the points with the largest
// sample-to-sample change (braking points, throttle lifts, speed drops), the
// other half to evenly strided points so the overall lap shape survives. The
// result preserves the original sample order.
func Downsample(points []TelemetryPoint, limit int) []TelemetryPoint {
	if limit <= 0 || len(points) <= limit {
		return points
	}

	// Importance of a sample is how much it differs from its predecessor,
	// with brake and throttle transitions weighted above plain speed change.
	importance := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		importance[i] = math.Abs(cur.Speed-prev.Speed) +
			10*math.Abs(cur.Throttle-prev.Throttle) +
			20*math.Abs(cur.Brake-prev.Brake)
	}

	order := make([]int, len(points))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return importance[order[a]] > importance[order[b]]
	})

	keep := make(map[int]struct{}, limit)
	for _, idx := range order[:limit/2] {
		keep[idx] = struct{}{}
	}

	// Stride over the full trace for the remaining budget.
	stride := max(1, len(points)/limit*2)
	for i := 0; i < len(points) && len(keep) < limit; i += stride {
		keep[i] = struct{}{}
	}

	kept := make([]int, 0, len(keep))
	for idx := range keep {
		kept = append(kept, idx)
	}
	slices.Sort(kept)

	out := make([]TelemetryPoint, len(kept))
	for i, idx := range kept {
		out[i] = points[idx]
	}
	return out
}
