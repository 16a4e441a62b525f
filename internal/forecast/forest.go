package forecast

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// Classifier is a binary classifier over float feature vectors
type Classifier interface {
	Fit(x [][]float64, y []bool) error
	Predict(x []float64) bool
}

// ForestConfig holds random forest hyper-parameters
type ForestConfig struct {
	Trees    int
	MaxDepth int // 0 = unlimited
	MinLeaf  int
	Seed     int64
}

// RandomForest is a bagged ensemble of CART trees split on Gini impurity.
// Each tree sees a bootstrap sample and sqrt(features) candidates per split.
// Prediction averages the trees' leaf probabilities; ties go to false.
type RandomForest struct {
	cfg   ForestConfig
	trees []*node
}

// NewRandomForest creates an unfitted forest
func NewRandomForest(cfg ForestConfig) *RandomForest {
	if cfg.Trees < 1 {
		cfg.Trees = 100
	}
	if cfg.MinLeaf < 1 {
		cfg.MinLeaf = 1
	}
	return &RandomForest{cfg: cfg}
}

type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node
	prob      float64 // P(true) at a leaf
	leaf      bool
}

func (f *RandomForest) Fit(x [][]float64, y []bool) error {
	if len(x) == 0 {
		return errors.New("random forest: no samples")
	}
	if len(x) != len(y) {
		return errors.New("random forest: features and labels differ in length")
	}

	rng := rand.New(rand.NewSource(f.cfg.Seed))
	nFeatures := len(x[0])
	maxFeatures := int(math.Max(1, math.Floor(math.Sqrt(float64(nFeatures)))))

	f.trees = make([]*node, f.cfg.Trees)
	sample := make([]int, len(x))
	for t := range f.trees {
		for i := range sample {
			sample[i] = rng.Intn(len(x))
		}
		b := builder{x: x, y: y, cfg: f.cfg, rng: rng, nFeatures: nFeatures, maxFeatures: maxFeatures}
		f.trees[t] = b.grow(append([]int(nil), sample...), 0)
	}
	return nil
}

// Probability returns the mean leaf probability of the true class
func (f *RandomForest) Probability(x []float64) float64 {
	if len(f.trees) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range f.trees {
		n := t
		for !n.leaf {
			if x[n.feature] <= n.threshold {
				n = n.left
			} else {
				n = n.right
			}
		}
		sum += n.prob
	}
	return sum / float64(len(f.trees))
}

func (f *RandomForest) Predict(x []float64) bool {
	return f.Probability(x) > 0.5
}

type builder struct {
	x           [][]float64
	y           []bool
	cfg         ForestConfig
	rng         *rand.Rand
	nFeatures   int
	maxFeatures int
}

func (b *builder) grow(idx []int, depth int) *node {
	pos := 0
	for _, i := range idx {
		if b.y[i] {
			pos++
		}
	}
	prob := float64(pos) / float64(len(idx))
	leaf := &node{leaf: true, prob: prob}

	if pos == 0 || pos == len(idx) || len(idx) < 2*b.cfg.MinLeaf {
		return leaf
	}
	if b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth {
		return leaf
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return leaf
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &node{
		feature:   feature,
		threshold: threshold,
		left:      b.grow(left, depth+1),
		right:     b.grow(right, depth+1),
	}
}

// bestSplit scans midpoints between distinct sorted values of the candidate features
func (b *builder) bestSplit(idx []int) (int, float64, bool) {
	candidates := b.rng.Perm(b.nFeatures)[:b.maxFeatures]

	total := len(idx)
	totalPos := 0
	for _, i := range idx {
		if b.y[i] {
			totalPos++
		}
	}

	best := gini(totalPos, total)
	bestFeature, bestThreshold, found := 0, 0.0, false

	sorted := append([]int(nil), idx...)
	for _, feat := range candidates {
		sort.SliceStable(sorted, func(a, c int) bool { return b.x[sorted[a]][feat] < b.x[sorted[c]][feat] })

		leftPos := 0
		for k := 1; k < total; k++ {
			if b.y[sorted[k-1]] {
				leftPos++
			}
			lo, hi := b.x[sorted[k-1]][feat], b.x[sorted[k]][feat]
			if lo == hi || k < b.cfg.MinLeaf || total-k < b.cfg.MinLeaf {
				continue
			}

			wl := float64(k) / float64(total)
			score := wl*gini(leftPos, k) + (1-wl)*gini(totalPos-leftPos, total-k)
			if score < best-1e-12 {
				best = score
				bestFeature, bestThreshold, found = feat, lo+(hi-lo)/2, true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}
