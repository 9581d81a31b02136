package services

import (
	"event-discovery-service/internal/domain"
	"math"
)

// NearestNeighborOrder returns a visiting order over points using a greedy
// nearest-neighbor pass that starts at index 0.
//
// The algorithm minimizes the immediate great-circle hop at each step.
// It does not attempt global route optimization. Points that are nil (position
// unknown) cannot be placed and are appended after the placed ones in their
// original order. The result is a permutation of 0..len(points)-1.
func NearestNeighborOrder(ids []string, points []*domain.Coordinates) []int {
	n := len(points)
	order := make([]int, 0, n)
	if n == 0 {
		return order
	}

	remaining := make(map[int]struct{}, n)
	var unplaced []int
	for i := 1; i < n; i++ {
		if points[i] == nil {
			unplaced = append(unplaced, i)
			continue
		}
		remaining[i] = struct{}{}
	}

	order = append(order, 0)
	if points[0] == nil {
		// Without a start position there is nothing to measure from.
		for i := 1; i < n; i++ {
			order = append(order, i)
		}
		return order
	}

	current := 0
	for len(remaining) > 0 {
		best := -1
		bestDist := math.Inf(1)

		// Select next stop by minimum hop distance (greedy step).
		for i := range remaining {
			d := domain.HaversineMeters(*points[current], *points[i])
			// Tie-breaker keeps the order deterministic across map iteration.
			if d < bestDist || (d == bestDist && (best == -1 || ids[i] < ids[best])) {
				bestDist = d
				best = i
			}
		}

		order = append(order, best)
		delete(remaining, best)
		current = best
	}

	return append(order, unplaced...)
}
