// Package dag holds the dependency topology of a decision batch. Nodes are
// task labels or ids; an edge from A to B means B cannot be created before A.
//
// The graph remembers insertion order so TopologicalOrder is deterministic:
// among the nodes whose dependencies are satisfied, the one added first is
// emitted first. A batch that is already in dependency order therefore comes
// back unchanged.
package dag
