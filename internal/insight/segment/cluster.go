package segment

import (
	"errors"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Clusterer fits k clusters over row vectors and reports a label per row
// plus the fitted centroids. Implementations must be deterministic for a
// fixed seed.
type Clusterer interface {
	Name() string
	Fit(X [][]float64, k int) (labels []int, centroids [][]float64, err error)
}

var errTooFewRows = errors.New("need at least two rows to cluster")

const defaultSeed = 42

// KMeans is Lloyd's algorithm with k-means++ seeding.
type KMeans struct {
	MaxIter int
	Seed    int64
}

func NewKMeans() *KMeans { return &KMeans{MaxIter: 100, Seed: defaultSeed} }

func (k *KMeans) Name() string { return "KMeans" }

func (k *KMeans) Fit(X [][]float64, clusters int) ([]int, [][]float64, error) {
	if len(X) < 2 {
		return nil, nil, errTooFewRows
	}
	if clusters > len(X) {
		clusters = len(X)
	}
	if clusters < 1 {
		clusters = 1
	}

	rng := rand.New(rand.NewSource(k.Seed))
	centroids := seedPlusPlus(X, clusters, rng)
	labels := make([]int, len(X))

	maxIter := k.MaxIter
	if maxIter <= 0 {
		maxIter = 100
	}
	for iter := 0; iter < maxIter; iter++ {
		moved := false
		for i, row := range X {
			best := nearest(row, centroids)
			if best != labels[i] {
				labels[i] = best
				moved = true
			}
		}
		recenter(X, labels, centroids, rng)
		if !moved && iter > 0 {
			break
		}
	}
	return labels, centroids, nil
}

// seedPlusPlus picks initial centroids weighted by squared distance to the
// closest centroid chosen so far.
func seedPlusPlus(X [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := append([]float64(nil), X[rng.Intn(len(X))]...)
	centroids = append(centroids, first)

	d2 := make([]float64, len(X))
	for len(centroids) < k {
		var sum float64
		for i, row := range X {
			d := floats.Distance(row, centroids[nearest(row, centroids)], 2)
			d2[i] = d * d
			sum += d2[i]
		}
		var next int
		if sum == 0 {
			next = rng.Intn(len(X))
		} else {
			r := rng.Float64() * sum
			for i, w := range d2 {
				r -= w
				if r <= 0 {
					next = i
					break
				}
			}
		}
		centroids = append(centroids, append([]float64(nil), X[next]...))
	}
	return centroids
}

func nearest(row []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, cent := range centroids {
		if d := floats.Distance(row, cent, 2); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// recenter moves each centroid to the mean of its members. An emptied
// cluster is reseeded on a random row so k survives the iteration.
func recenter(X [][]float64, labels []int, centroids [][]float64, rng *rand.Rand) {
	dim := len(X[0])
	counts := make([]int, len(centroids))
	for c := range centroids {
		for j := 0; j < dim; j++ {
			centroids[c][j] = 0
		}
	}
	for i, row := range X {
		floats.Add(centroids[labels[i]], row)
		counts[labels[i]]++
	}
	for c := range centroids {
		if counts[c] == 0 {
			copy(centroids[c], X[rng.Intn(len(X))])
			continue
		}
		floats.Scale(1/float64(counts[c]), centroids[c])
	}
}

// GMM is expectation-maximization over diagonal-covariance Gaussians,
// initialized from a k-means fit. Assignment is the argmax responsibility,
// so its output shape matches KMeans exactly.
type GMM struct {
	MaxIter int
	Seed    int64
}

func NewGMM() *GMM { return &GMM{MaxIter: 50, Seed: defaultSeed} }

func (g *GMM) Name() string { return "GMM" }

// varianceFloor keeps degenerate components from collapsing the
// log-likelihood when a cluster holds identical rows.
const varianceFloor = 1e-6

func (g *GMM) Fit(X [][]float64, clusters int) ([]int, [][]float64, error) {
	if len(X) < 2 {
		return nil, nil, errTooFewRows
	}
	km := &KMeans{MaxIter: 100, Seed: g.Seed}
	labels, means, err := km.Fit(X, clusters)
	if err != nil {
		return nil, nil, err
	}
	clusters = len(means)
	dim := len(X[0])

	weights := make([]float64, clusters)
	variances := make([][]float64, clusters)
	for c := range variances {
		variances[c] = make([]float64, dim)
	}
	for i, row := range X {
		c := labels[i]
		weights[c]++
		for j, x := range row {
			d := x - means[c][j]
			variances[c][j] += d * d
		}
	}
	for c := 0; c < clusters; c++ {
		n := weights[c]
		for j := 0; j < dim; j++ {
			if n > 0 {
				variances[c][j] /= n
			}
			variances[c][j] = math.Max(variances[c][j], varianceFloor)
		}
		weights[c] /= float64(len(X))
	}

	resp := make([][]float64, len(X))
	for i := range resp {
		resp[i] = make([]float64, clusters)
	}

	maxIter := g.MaxIter
	if maxIter <= 0 {
		maxIter = 50
	}
	for iter := 0; iter < maxIter; iter++ {
		// E step: responsibilities from the log densities.
		for i, row := range X {
			logp := resp[i]
			for c := 0; c < clusters; c++ {
				logp[c] = math.Log(math.Max(weights[c], varianceFloor)) + logGaussDiag(row, means[c], variances[c])
			}
			normalizeLog(logp)
		}

		// M step: reweight, recenter, respread.
		for c := 0; c < clusters; c++ {
			var nc float64
			for i := range X {
				nc += resp[i][c]
			}
			weights[c] = nc / float64(len(X))
			if nc < varianceFloor {
				continue
			}
			for j := 0; j < dim; j++ {
				var m float64
				for i, row := range X {
					m += resp[i][c] * row[j]
				}
				means[c][j] = m / nc
			}
			for j := 0; j < dim; j++ {
				var v float64
				for i, row := range X {
					d := row[j] - means[c][j]
					v += resp[i][c] * d * d
				}
				variances[c][j] = math.Max(v/nc, varianceFloor)
			}
		}
	}

	for i := range X {
		labels[i] = floats.MaxIdx(resp[i])
	}
	return labels, means, nil
}

func logGaussDiag(row, mean, variance []float64) float64 {
	lp := 0.0
	for j, x := range row {
		d := x - mean[j]
		lp += -0.5*math.Log(2*math.Pi*variance[j]) - d*d/(2*variance[j])
	}
	return lp
}

// normalizeLog turns log weights into probabilities in place.
func normalizeLog(logp []float64) {
	max := floats.Max(logp)
	var sum float64
	for i, lp := range logp {
		logp[i] = math.Exp(lp - max)
		sum += logp[i]
	}
	floats.Scale(1/sum, logp)
}
