package mtree

import (
	"fmt"
)

// ViolationKind classifies a structural invariant violation.
type ViolationKind int

const (
	// ViolationCapacity indicates a node holding more records than the
	// configured capacity.
	ViolationCapacity ViolationKind = iota

	// ViolationNesting indicates a point outside the covering radius of an
	// ancestor routing record.
	ViolationNesting

	// ViolationDuplicate indicates a leaf holding the same point ID twice.
	ViolationDuplicate
)

// String returns a string representation of the ViolationKind.
func (k ViolationKind) String() string {
	switch k {
	case ViolationCapacity:
		return "Capacity"
	case ViolationNesting:
		return "Nesting"
	case ViolationDuplicate:
		return "Duplicate"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Violation describes a single violated invariant.
type Violation struct {
	Node    int
	Kind    ViolationKind
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("node %d: %s: %s", v.Node, v.Kind, v.Message)
}

// Validate checks the structural invariants of the tree and reports every
// violation found without halting: capacity bounds, the nesting condition
// (every point within its ancestor routing radii) and leaf point
// uniqueness.
//
// Validate is a diagnostic; it is never invoked on the insert or search
// paths.
func (t *MTree) Validate() []Violation {
	var violations []Violation
	if t.root == nilNode {
		return violations
	}
	t.validateNode(t.root, &violations)
	return violations
}

func (t *MTree) validateNode(id nodeID, violations *[]Violation) {
	n := &t.nodes[id]

	if n.kind == leafKind {
		if len(n.leaves) > t.capacity {
			*violations = append(*violations, Violation{
				Node:    int(id),
				Kind:    ViolationCapacity,
				Message: fmt.Sprintf("%d records exceed capacity %d", len(n.leaves), t.capacity),
			})
		}
		seen := make(map[uint32]bool, len(n.leaves))
		for _, lr := range n.leaves {
			if seen[lr.Point.ID] {
				*violations = append(*violations, Violation{
					Node:    int(id),
					Kind:    ViolationDuplicate,
					Message: fmt.Sprintf("point %d stored twice", lr.Point.ID),
				})
			}
			seen[lr.Point.ID] = true
		}
		return
	}

	if len(n.routing) > t.capacity {
		*violations = append(*violations, Violation{
			Node:    int(id),
			Kind:    ViolationCapacity,
			Message: fmt.Sprintf("%d records exceed capacity %d", len(n.routing), t.capacity),
		})
	}

	for i := range n.routing {
		rr := n.routing[i]
		for _, p := range t.subtreePoints(rr.Child) {
			if d := t.fn(rr.Pivot, p); d > rr.Radius {
				*violations = append(*violations, Violation{
					Node:    int(id),
					Kind:    ViolationNesting,
					Message: fmt.Sprintf("point %d at distance %g outside radius %g of pivot %d", p.ID, d, rr.Radius, rr.Pivot.ID),
				})
			}
		}
		t.validateNode(rr.Child, violations)
	}
}
