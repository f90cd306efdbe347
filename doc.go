// Package metrigo provides interchangeable metric-space indexing methods
// with observable pruning decisions.
//
// Three methods are implemented, each supporting dynamic insertion,
// k-nearest-neighbor search and range search over a pluggable metric:
//
//   - AESA: a full pairwise distance cache with pivot-chaining search.
//     Very few distance computations per query, O(n^2) cache entries.
//   - LAESA: a pivot-reduced distance cache with a two-phase search.
//     O(k*n) cache entries for k designated pivots.
//   - M-Tree: a balanced covering tree of routing pivots and covering
//     radii, with best-first kNN and recursive range search.
//
// All three exploit the triangle inequality to prune candidates without
// computing their exact distance to the query; the pruning is exact (no
// false negatives).
//
// # Quick Start
//
//	store := point.NewStore()
//	rng := rand.New(rand.NewSource(42))
//	store.RandomDataset(64, 800, 600, rng)
//	query := store.Query()
//
//	idx, _ := aesa.New(store, distance.Euclidean)
//
//	trace, err := metrigo.Run(metrigo.MethodAESA, metrigo.AlgorithmKNN,
//	    store, idx, query, metrigo.WithK(5))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for i, s := range trace.All() {
//	    render(i, s) // decision-tagged edges, circles and candidate sets
//	}
//
// The terminal step's Result set is the answer. Before a run starts, the
// store, the index and the query point are deep-cloned; the caller's
// instances are never mutated, so independent runs can proceed
// concurrently on their own clones.
//
// # Step Sequences
//
// Every algorithm is expressed as a finite sequence of step.Step snapshots
// recording why each candidate was eliminated, admitted or bounded. The
// sequence supports single-step advancement and early termination but no
// rewind; restarting requires a fresh run.
package metrigo
