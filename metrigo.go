package metrigo

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/metrigo/index"
	"github.com/hupe1980/metrigo/index/aesa"
	"github.com/hupe1980/metrigo/index/laesa"
	"github.com/hupe1980/metrigo/index/mtree"
	"github.com/hupe1980/metrigo/point"
	"github.com/hupe1980/metrigo/step"
)

// Method represents an indexing method.
type Method int

// Constants representing the indexing methods.
const (
	MethodAESA Method = iota
	MethodLAESA
	MethodMTree
)

// String returns a string representation of the Method.
func (m Method) String() string {
	switch m {
	case MethodAESA:
		return "AESA"
	case MethodLAESA:
		return "LAESA"
	case MethodMTree:
		return "MTree"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// Algorithm represents an operation over an index.
type Algorithm int

// Constants representing the operations.
const (
	AlgorithmInsert Algorithm = iota
	AlgorithmKNN
	AlgorithmRange
)

// String returns a string representation of the Algorithm.
func (a Algorithm) String() string {
	switch a {
	case AlgorithmInsert:
		return "Insert"
	case AlgorithmKNN:
		return "KNN"
	case AlgorithmRange:
		return "Range"
	default:
		return fmt.Sprintf("Unknown(%d)", int(a))
	}
}

// Run executes one algorithm over one index and returns the sequence of
// decision steps. The terminal step's Result set is the answer set.
//
// The supplied store, index and query point are deep-cloned before the run
// starts; all mutation happens on the clones, so the caller's instances
// never observe partial state and independent runs share nothing.
//
// Invalid (method, algorithm) combinations fail with an error wrapping
// ErrUnsupportedCombination before any step is produced.
func Run(method Method, algorithm Algorithm, store *point.Store, idx index.Index, query point.Point, optFns ...Option) (*step.Trace, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	if store == nil {
		return nil, ErrNilStore
	}
	if idx == nil {
		return nil, ErrNilIndex
	}
	if err := validate(method, algorithm, idx); err != nil {
		return nil, err
	}
	if algorithm == AlgorithmKNN && opts.k <= 0 {
		return nil, ErrInvalidK
	}
	if algorithm == AlgorithmRange && opts.radius < 0 {
		return nil, ErrInvalidRadius
	}

	storeClone := store.Clone()
	idxClone := idx.Clone(storeClone)
	rec := step.NewRecorder()

	var err error
	switch algorithm {
	case AlgorithmInsert:
		err = idxClone.Insert(query, rec)
	case AlgorithmKNN:
		_, err = idxClone.KNN(query, opts.k, rec)
	case AlgorithmRange:
		_, err = idxClone.Range(query, opts.radius, rec)
	}
	if err != nil {
		opts.logger.LogRun(method, algorithm, 0, err)
		return nil, err
	}

	trace := rec.Trace()
	opts.logger.LogRun(method, algorithm, trace.Len(), nil)
	return trace, nil
}

// CrossCheck runs the same query with the same algorithm across several
// methods concurrently and returns the per-method result sets.
//
// Each run operates on its own deep clone of the store and index, so the
// concurrent runs share no mutable state. CrossCheck backs the equivalence
// tests between the methods; all methods must return identical answer sets.
func CrossCheck(algorithm Algorithm, store *point.Store, indexes map[Method]index.Index, query point.Point, optFns ...Option) (map[Method][]index.Result, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	if store == nil {
		return nil, ErrNilStore
	}

	var (
		mu  sync.Mutex
		out = make(map[Method][]index.Result, len(indexes))
		g   errgroup.Group
	)

	for method, idx := range indexes {
		if idx == nil {
			return nil, ErrNilIndex
		}
		if err := validate(method, algorithm, idx); err != nil {
			return nil, err
		}

		g.Go(func() error {
			storeClone := store.Clone()
			idxClone := idx.Clone(storeClone)
			rec := step.NewRecorder()

			var (
				results []index.Result
				err     error
			)
			switch algorithm {
			case AlgorithmInsert:
				err = idxClone.Insert(query, rec)
			case AlgorithmKNN:
				results, err = idxClone.KNN(query, opts.k, rec)
			case AlgorithmRange:
				results, err = idxClone.Range(query, opts.radius, rec)
			}
			if err != nil {
				return fmt.Errorf("%s/%s: %w", method, algorithm, err)
			}

			mu.Lock()
			out[method] = results
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// validate checks the (method, algorithm) combination and that the index
// instance implements the requested method.
func validate(method Method, algorithm Algorithm, idx index.Index) error {
	switch algorithm {
	case AlgorithmInsert, AlgorithmKNN, AlgorithmRange:
	default:
		return fmt.Errorf("%w: unknown algorithm %d", ErrUnsupportedCombination, int(algorithm))
	}

	var ok bool
	switch method {
	case MethodAESA:
		_, ok = idx.(*aesa.AESA)
	case MethodLAESA:
		_, ok = idx.(*laesa.LAESA)
	case MethodMTree:
		_, ok = idx.(*mtree.MTree)
	default:
		return fmt.Errorf("%w: unknown method %d", ErrUnsupportedCombination, int(method))
	}
	if !ok {
		return &ErrMethodMismatch{Method: method, Index: fmt.Sprintf("%T", idx)}
	}
	return nil
}
