// Package reconcile contains the pure projection logic that turns
// append-only snapshot history into a single consistent current state:
// latest-state resolution, position aggregation, token metrics resolution,
// pair key reconciliation, gap analysis and virtual pair synthesis.
// Everything here is a pure function of its inputs; no component keeps
// state between cycles.
package reconcile

import "lp-gap-lab/internal/domain"

// Latest retains exactly one row per key: the maximum row under the strict
// total order defined by less. Runs in O(n), never errors. The order must be
// total (break recency ties on a secondary field) so the projection is
// reproducible regardless of input ordering.
//
// Every downstream computation depends on this selection; the historical
// failure mode it guards against is summing across history instead of
// projecting to the latest row per key.
func Latest[R any, K comparable](rows []R, keyFn func(R) K, less func(a, b R) bool) map[K]R {
	out := make(map[K]R, len(rows))
	for _, row := range rows {
		k := keyFn(row)
		cur, ok := out[k]
		if !ok || less(cur, row) {
			out[k] = row
		}
	}
	return out
}

// positionLess orders position snapshots by recency: captured_at first,
// then the monotonically increasing row id as a deterministic tiebreak.
func positionLess(a, b *domain.PositionSnapshot) bool {
	if !a.CapturedAt.Equal(b.CapturedAt) {
		return a.CapturedAt.Before(b.CapturedAt)
	}
	return a.ID < b.ID
}

// metricsLess orders pool metrics snapshots by recency with a deterministic
// tiebreak over the remaining identity fields.
func metricsLess(a, b *domain.PoolMetricsSnapshot) bool {
	if !a.CapturedAt.Equal(b.CapturedAt) {
		return a.CapturedAt.Before(b.CapturedAt)
	}
	if a.PoolAddress != b.PoolAddress {
		return a.PoolAddress < b.PoolAddress
	}
	return a.Dex < b.Dex
}
