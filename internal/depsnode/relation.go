package depsnode

import (
	"fmt"
	"strings"
)

// RelationFlag is a policy bit carried by a relation.
type RelationFlag uint32

const (
	// RelCheckBeforeAdd merges with an existing relation of the same
	// (from, to, description) instead of adding a duplicate.
	RelCheckBeforeAdd RelationFlag = 1 << iota
	// RelGodmode marks relations the cycle solver may never cut.
	RelGodmode
	// RelCyclic is set by the cycle solver on relations it ignores.
	RelCyclic
	// RelNoFlush stops update flushing along the relation.
	RelNoFlush
	// RelFlushUserEditOnly flushes only updates caused by user edits.
	RelFlushUserEditOnly
	// RelNoVisibilityChange keeps visibility from propagating along the relation.
	RelNoVisibilityChange
)

var relationFlagNames = []struct {
	flag RelationFlag
	name string
}{
	{RelCheckBeforeAdd, "CHECK_BEFORE_ADD"},
	{RelGodmode, "GODMODE"},
	{RelCyclic, "CYCLIC"},
	{RelNoFlush, "NO_FLUSH"},
	{RelFlushUserEditOnly, "FLUSH_USER_EDIT_ONLY"},
	{RelNoVisibilityChange, "NO_VISIBILITY_CHANGE"},
}

// Has reports whether all bits of mask are set.
func (f RelationFlag) Has(mask RelationFlag) bool {
	return f&mask == mask
}

func (f RelationFlag) String() string {
	var parts []string
	for _, fn := range relationFlagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, "|")
}

// Relation is a directed dependency edge. Its identity is
// (From, To, Description); only Flags may change after creation.
type Relation struct {
	From        Node
	To          Node
	Description string
	Flags       RelationFlag

	linked bool
	// Slot is the position of the relation in its owner's arena.
	Slot int
}

// AddFlags ORs flags into the relation.
func (r *Relation) AddFlags(flags RelationFlag) {
	r.Flags |= flags
}

// Linked reports whether the relation is still attached to its endpoints.
func (r *Relation) Linked() bool {
	return r.linked
}

func (r *Relation) String() string {
	return fmt.Sprintf("%s -> %s (%s)", r.From, r.To, r.Description)
}

// Connect creates a relation and appends it to the adjacency lists of both
// endpoints. The caller owns the returned relation.
func Connect(from, to Node, description string, flags RelationFlag) *Relation {
	rel := &Relation{From: from, To: to, Description: description, Flags: flags, linked: true, Slot: -1}
	fb, tb := from.core(), to.core()
	fb.outlinks = append(fb.outlinks, rel)
	tb.inlinks = append(tb.inlinks, rel)
	return rel
}

// Disconnect removes the relation from both endpoints. It reports false when
// the relation was already detached, so every relation is unlinked exactly
// once.
func Disconnect(rel *Relation) bool {
	if rel == nil || !rel.linked {
		return false
	}
	fb, tb := rel.From.core(), rel.To.core()
	fb.outlinks = removeRelation(fb.outlinks, rel)
	tb.inlinks = removeRelation(tb.inlinks, rel)
	rel.linked = false
	return true
}

func removeRelation(list []*Relation, rel *Relation) []*Relation {
	for i, r := range list {
		if r == rel {
			copy(list[i:], list[i+1:])
			list[len(list)-1] = nil
			return list[:len(list)-1]
		}
	}
	return list
}

// FindRelation returns the relation between from and to carrying the given
// description. Only the smaller of from's outlinks and to's inlinks is
// scanned.
func FindRelation(from, to Node, description string) *Relation {
	out, in := from.Outlinks(), to.Inlinks()
	if len(out) <= len(in) {
		for _, rel := range out {
			if rel.To == to && rel.Description == description {
				return rel
			}
		}
		return nil
	}
	for _, rel := range in {
		if rel.From == from && rel.Description == description {
			return rel
		}
	}
	return nil
}

// CheckNodesConnected reports whether a relation with the description
// already exists between from and to.
func CheckNodesConnected(from, to Node, description string) bool {
	return FindRelation(from, to, description) != nil
}

// CopyOnEvalOrderValid reports whether a relation from -> to respects the
// copy-on-eval ordering: when both ends are operations and the destination
// belongs to the copy-on-eval component, the source must too.
func CopyOnEvalOrderValid(from, to Node) bool {
	fop, ok1 := from.(*OperationNode)
	top, ok2 := to.(*OperationNode)
	if !ok1 || !ok2 {
		return true
	}
	if top.Owner().Type() != NodeCopyOnEval {
		return true
	}
	return fop.Owner().Type() == NodeCopyOnEval
}
