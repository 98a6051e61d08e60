// Package segment assigns a user-month spending profile to a named
// segment. Two interchangeable strategies share the same result shape:
// fixed rule thresholds (always available) and unsupervised clustering
// across all users of a month (requires the numerical capability to be
// injected at construction; there is no ambient fallback).
package segment

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Raajp10/ai-expense-tracker/internal/insight/features"
)

// ErrClusteringUnavailable is returned when a global clustering run is
// requested but the segmenter was built without a clusterer. Callers must
// surface this rather than silently substituting the rule-based strategy.
var ErrClusteringUnavailable = errors.New("global clustering capability unavailable")

// Rule-based segment ids.
const (
	SegmentInactive = 0
	SegmentLight    = 1
	SegmentBig      = 2
	SegmentBalanced = 3
	SegmentHeavy    = 4
)

// Rule thresholds.
const (
	lightSpendCeiling  = 50.0
	bigSpendFloor      = 500.0
	dominantRatioFloor = 0.70
)

// Result is a segment assignment. For the rule-based strategy Centroid
// echoes the input feature vector; for clustering it is the fitted
// cluster centroid.
type Result struct {
	SegmentID int       `json:"segment_id"`
	Label     string    `json:"label"`
	Centroid  []float64 `json:"centroid"`
}

// Classify applies the fixed rule thresholds to a feature vector. It is a
// pure function of grand total and the dominant category ratio.
func Classify(v features.Vector) Result {
	if v.GrandTotal == 0 {
		return Result{SegmentID: SegmentInactive, Label: "Inactive", Centroid: v.Values}
	}

	var out Result
	switch {
	case v.GrandTotal < lightSpendCeiling:
		out = Result{SegmentID: SegmentLight, Label: "Light Spender"}
	case v.GrandTotal > bigSpendFloor:
		out = Result{SegmentID: SegmentBig, Label: "Big Spender"}
	default:
		out = Result{SegmentID: SegmentBalanced, Label: "Balanced Spender"}
	}

	if name, ratio, ok := v.Dominant(); ok && ratio >= dominantRatioFloor {
		out = Result{SegmentID: SegmentHeavy, Label: name + "-heavy"}
	}

	out.Centroid = v.Values
	return out
}

// Store is the read access the global strategy needs beyond the feature
// builder's own queries.
type Store interface {
	UserIDsWithExpenses(ctx context.Context, month string) ([]int64, error)
}

// Segmenter serves both strategies. clusterer may be nil, which disables
// Global with ErrClusteringUnavailable.
type Segmenter struct {
	store     Store
	builder   *features.Builder
	clusterer Clusterer
	k         int
}

func NewSegmenter(store Store, builder *features.Builder, clusterer Clusterer, k int) *Segmenter {
	if k <= 0 {
		k = 4
	}
	return &Segmenter{store: store, builder: builder, clusterer: clusterer, k: k}
}

// Single classifies one user-month with the rule-based strategy.
func (s *Segmenter) Single(ctx context.Context, userID int64, month string) (Result, error) {
	v, err := s.builder.Build(ctx, userID, month)
	if err != nil {
		return Result{}, fmt.Errorf("build features: %w", err)
	}
	return Classify(v), nil
}

// Global partitions every user with expense data in the month into k
// clusters. With fewer than two such users a batch fit is meaningless, so
// each user gets the rule-based result instead; that degradation is part
// of the contract, unlike a missing clusterer which is an error.
func (s *Segmenter) Global(ctx context.Context, month string) (map[int64]Result, error) {
	if s.clusterer == nil {
		return nil, ErrClusteringUnavailable
	}

	userIDs, err := s.store.UserIDsWithExpenses(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("list users for %s: %w", month, err)
	}

	vectors, err := s.collectVectors(ctx, userIDs, month)
	if err != nil {
		return nil, err
	}

	results := make(map[int64]Result, len(userIDs))
	if len(userIDs) < 2 {
		for _, id := range userIDs {
			results[id] = Classify(vectors[id])
		}
		return results, nil
	}

	// Deterministic row order for the fit.
	sorted := append([]int64(nil), userIDs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	X := make([][]float64, len(sorted))
	for i, id := range sorted {
		X[i] = vectors[id].Values
	}

	k := s.k
	if k > len(sorted) {
		k = len(sorted)
	}
	labels, centroids, err := s.clusterer.Fit(X, k)
	if err != nil {
		return nil, fmt.Errorf("fit %s clusters: %w", s.clusterer.Name(), err)
	}

	for i, id := range sorted {
		cluster := labels[i]
		results[id] = Result{
			SegmentID: cluster,
			Label:     fmt.Sprintf("%s-Cluster-%d", s.clusterer.Name(), cluster),
			Centroid:  centroids[cluster],
		}
	}
	return results, nil
}

// collectVectors builds per-user feature vectors with bounded concurrency.
func (s *Segmenter) collectVectors(ctx context.Context, userIDs []int64, month string) (map[int64]features.Vector, error) {
	vectors := make(map[int64]features.Vector, len(userIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	type built struct {
		id int64
		v  features.Vector
	}
	ch := make(chan built, len(userIDs))

	for _, id := range userIDs {
		id := id
		g.Go(func() error {
			v, err := s.builder.Build(gctx, id, month)
			if err != nil {
				return fmt.Errorf("build features for user %d: %w", id, err)
			}
			ch <- built{id: id, v: v}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(ch)

	for b := range ch {
		vectors[b.id] = b.v
	}
	return vectors, nil
}
