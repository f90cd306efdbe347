// Package mtree implements the M-Tree indexing method: a balanced,
// capacity-bounded covering tree whose internal nodes are routing entries
// (pivot, covering radius, child subtree) and whose leaves are data entries
// (point, distance to the parent pivot).
//
// The tree supports bulk loading, single-point insertion with recursive
// node splitting, and pruning k-nearest-neighbor and range searches that
// exploit both the covering radii and the stored parent distances.
package mtree

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/hupe1980/metrigo/distance"
	"github.com/hupe1980/metrigo/index"
	"github.com/hupe1980/metrigo/point"
)

// Compile-time check to ensure MTree satisfies the index interface.
var _ index.Index = (*MTree)(nil)

// ErrInvalidCapacity indicates a node capacity too small to split.
type ErrInvalidCapacity struct {
	Capacity int
}

func (e *ErrInvalidCapacity) Error() string {
	return fmt.Sprintf("mtree: invalid node capacity: %d (minimum 2)", e.Capacity)
}

// Options contains configuration options for the M-Tree.
type Options struct {
	// Capacity is the maximum number of records per node. Exceeding it
	// triggers a split. Must be at least 2.
	Capacity int

	// Seed seeds the random source used by the bulk-load pivot seeding.
	Seed int64
}

// DefaultOptions contains the default configuration options for the M-Tree.
var DefaultOptions = Options{
	Capacity: 4,
	Seed:     1,
}

// MTree is the covering-tree indexing method.
type MTree struct {
	store    *point.Store
	fn       distance.Func
	capacity int
	seed     int64

	nodes []node
	root  nodeID
}

// New creates an M-Tree over the given store and bulk-loads its non-query
// points.
func New(store *point.Store, fn distance.Func, optFns ...func(o *Options)) (*MTree, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Capacity < 2 {
		return nil, &ErrInvalidCapacity{Capacity: opts.Capacity}
	}

	t := &MTree{
		store:    store,
		fn:       fn,
		capacity: opts.Capacity,
		seed:     opts.Seed,
		root:     nilNode,
	}
	if store != nil {
		t.BulkLoad(store.NonQuery())
	}
	return t, nil
}

// Capacity returns the node capacity.
func (t *MTree) Capacity() int {
	return t.capacity
}

// Len returns the number of data points in the tree.
func (t *MTree) Len() int {
	return len(t.PointIDs())
}

// PointIDs returns the IDs of all data points in the tree.
func (t *MTree) PointIDs() []uint32 {
	return t.subtreeIDs(t.root)
}

// Points returns all data points in the tree.
func (t *MTree) Points() []point.Point {
	return t.subtreePoints(t.root)
}

// Clone returns a deep copy of the tree bound to the given cloned store.
func (t *MTree) Clone(store *point.Store) index.Index {
	clone := &MTree{
		store:    store,
		fn:       t.fn,
		capacity: t.capacity,
		seed:     t.seed,
		nodes:    make([]node, len(t.nodes)),
		root:     t.root,
	}
	for i, n := range t.nodes {
		cn := node{kind: n.kind, parent: n.parent}
		if n.routing != nil {
			cn.routing = make([]routingRecord, len(n.routing))
			copy(cn.routing, n.routing)
		}
		if n.leaves != nil {
			cn.leaves = make([]leafRecord, len(n.leaves))
			copy(cn.leaves, n.leaves)
		}
		clone.nodes[i] = cn
	}
	return clone
}

// promote returns the two points maximizing pairwise distance among pts.
// Ties resolve to the first maximal pair found under the scan order.
func (t *MTree) promote(pts []point.Point) (point.Point, point.Point) {
	best := -1.0
	var a, b point.Point
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			if d := t.fn(pts[i], pts[j]); d > best {
				best = d
				a, b = pts[i], pts[j]
			}
		}
	}
	return a, b
}

// partition assigns each point to the closer of the two pivots. A tie
// favors pivot1.
func (t *MTree) partition(pts []point.Point, p1, p2 point.Point) (g1, g2 []point.Point) {
	for _, p := range pts {
		if t.fn(p, p1) <= t.fn(p, p2) {
			g1 = append(g1, p)
		} else {
			g2 = append(g2, p)
		}
	}
	return g1, g2
}

// BulkLoad replaces the tree contents with a freshly clustered tree over
// the given points.
//
// Clustering recursively seeds min(capacity, ceil(sqrt(n))) group pivots
// with probability proportional to the squared distance to the nearest
// already-chosen pivot, assigns each point to its nearest pivot and recurses
// per group. Recursion depth is bounded by ceil(log_capacity(n)) + 2.
// Routing radii equal the true maximum pivot-to-member distance.
func (t *MTree) BulkLoad(pts []point.Point) {
	t.nodes = t.nodes[:0]
	t.root = nilNode
	if len(pts) == 0 {
		return
	}

	rng := rand.New(rand.NewSource(t.seed))
	maxDepth := 2
	if len(pts) > 1 {
		maxDepth += int(math.Ceil(math.Log(float64(len(pts))) / math.Log(float64(t.capacity))))
	}

	t.root = t.buildCluster(pts, maxDepth, rng)
	t.refreshParentDist(t.root, nil)
}

func (t *MTree) buildCluster(pts []point.Point, depth int, rng *rand.Rand) nodeID {
	if len(pts) <= t.capacity || depth <= 0 {
		return t.newLeaf(pts)
	}

	k := int(math.Ceil(math.Sqrt(float64(len(pts)))))
	if k > t.capacity {
		k = t.capacity
	}

	seeds := t.seedPivots(pts, k, rng)
	groups := make([][]point.Point, len(seeds))
	for _, p := range pts {
		best := 0
		bd := t.fn(p, seeds[0])
		for i := 1; i < len(seeds); i++ {
			if d := t.fn(p, seeds[i]); d < bd {
				bd = d
				best = i
			}
		}
		groups[best] = append(groups[best], p)
	}

	nonEmpty := 0
	for _, g := range groups {
		if len(g) > 0 {
			nonEmpty++
		}
	}
	if nonEmpty < 2 {
		// Degenerate clustering (coincident points); fall back to a leaf.
		return t.newLeaf(pts)
	}

	id := t.newNode(routingKind, nilNode)
	for i, g := range groups {
		if len(g) == 0 {
			continue
		}
		child := t.buildCluster(g, depth-1, rng)
		t.nodes[child].parent = id

		radius := 0.0
		for _, p := range g {
			if d := t.fn(seeds[i], p); d > radius {
				radius = d
			}
		}
		t.nodes[id].routing = append(t.nodes[id].routing, routingRecord{
			Pivot:  seeds[i],
			Radius: radius,
			Child:  child,
		})
	}
	return id
}

func (t *MTree) newLeaf(pts []point.Point) nodeID {
	id := t.newNode(leafKind, nilNode)
	for _, p := range pts {
		t.nodes[id].leaves = append(t.nodes[id].leaves, leafRecord{Point: p, ParentDist: -1})
	}
	return id
}

// seedPivots chooses up to k distinct group pivots, k-means++ style: the
// first uniformly at random, each following with probability proportional
// to the squared distance to the nearest already-chosen pivot.
func (t *MTree) seedPivots(pts []point.Point, k int, rng *rand.Rand) []point.Point {
	seeds := make([]point.Point, 0, k)
	seeds = append(seeds, pts[rng.Intn(len(pts))])

	weights := make([]float64, len(pts))
	for len(seeds) < k {
		total := 0.0
		for i, p := range pts {
			nearest := math.Inf(1)
			for _, s := range seeds {
				if d := t.fn(p, s); d < nearest {
					nearest = d
				}
			}
			weights[i] = nearest * nearest
			total += weights[i]
		}
		if total == 0 {
			break
		}

		target := rng.Float64() * total
		acc := 0.0
		chosen := len(pts) - 1
		for i := range pts {
			acc += weights[i]
			if acc >= target && weights[i] > 0 {
				chosen = i
				break
			}
		}
		seeds = append(seeds, pts[chosen])
	}
	return seeds
}
