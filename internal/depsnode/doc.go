// Package depsnode defines the vocabulary of the evaluation graph: typed
// nodes (generic, component and operation nodes) and the directed relations
// between them.
//
// Relations are created and destroyed through Connect and Disconnect, which
// keep both endpoints' adjacency lists in sync. Ownership of relations lies
// with whoever calls Connect (in practice the depsgraph.Graph arena); nodes
// only ever hold non-owning references.
package depsnode
