package depsgraph

import (
	"github.com/vk/evalgraph/internal/depsnode"
)

// AddRelation links from -> to. With RelCheckBeforeAdd an existing relation
// of the same description absorbs the flags instead of a duplicate being
// added.
func (g *Graph) AddRelation(from, to depsnode.Node, description string, flags depsnode.RelationFlag) (*depsnode.Relation, error) {
	if isNil(from) || isNil(to) {
		return nil, &RelationError{Kind: ErrMissingNode, From: nodeName(from), To: nodeName(to), Description: description}
	}
	if from == to {
		return nil, &RelationError{Kind: ErrSelfRelation, From: from.String(), To: to.String(), Description: description}
	}

	if flags.Has(depsnode.RelCheckBeforeAdd) {
		if rel := depsnode.FindRelation(from, to, description); rel != nil {
			rel.AddFlags(flags)
			return rel, nil
		}
	}

	if !depsnode.CopyOnEvalOrderValid(from, to) {
		err := &RelationError{Kind: ErrCopyOnEvalOrder, From: from.String(), To: to.String(), Description: description}
		if g.StrictInvariants {
			return nil, err
		}
		g.logger.Error("Copy-on-eval ordering violated.", "error", err)
	}

	rel := depsnode.Connect(from, to, description, flags)
	rel.Slot = len(g.relations)
	g.relations = append(g.relations, rel)
	return rel, nil
}

// RemoveRelation unlinks rel from both endpoints and drops it from the
// arena. Removing a relation twice is a no-op.
func (g *Graph) RemoveRelation(rel *depsnode.Relation) bool {
	if !depsnode.Disconnect(rel) {
		return false
	}
	last := len(g.relations) - 1
	if rel.Slot >= 0 && rel.Slot <= last && g.relations[rel.Slot] == rel {
		moved := g.relations[last]
		g.relations[rel.Slot] = moved
		moved.Slot = rel.Slot
		g.relations[last] = nil
		g.relations = g.relations[:last]
	}
	rel.Slot = -1
	return true
}

// Relations returns a snapshot of the arena.
func (g *Graph) Relations() []*depsnode.Relation {
	out := make([]*depsnode.Relation, len(g.relations))
	copy(out, g.relations)
	return out
}

func (g *Graph) clearRelations() {
	for _, rel := range g.relations {
		depsnode.Disconnect(rel)
		rel.Slot = -1
	}
	g.relations = nil
}

func isNil(n depsnode.Node) bool {
	if n == nil {
		return true
	}
	switch v := n.(type) {
	case *depsnode.OperationNode:
		return v == nil
	case *depsnode.ComponentNode:
		return v == nil
	case *depsnode.IDNode:
		return v == nil
	case *depsnode.TimeSourceNode:
		return v == nil
	}
	return false
}

func nodeName(n depsnode.Node) string {
	if isNil(n) {
		return "<nil>"
	}
	return n.String()
}
