package builder

import (
	"github.com/vk/evalgraph/internal/depsnode"
	"github.com/vk/evalgraph/internal/scene"
)

// linkCopyOnEval makes every operation of every data-block wait for the
// evaluated copy of that data-block.
func (b *Builder) linkCopyOnEval() {
	for _, n := range b.graph.IDNodes() {
		b.linkIDCopyOnEval(n)
	}
}

func (b *Builder) linkIDCopyOnEval(n *depsnode.IDNode) {
	idType := n.IDType()
	if !idType.NeedsEvalCopy() {
		return
	}
	cowComp, ok := n.FindComponent(depsnode.NodeCopyOnEval, "")
	if !ok {
		return
	}
	cow := cowComp.Exit()
	if cow == nil {
		return
	}

	for _, comp := range n.Components() {
		if comp.Type() == depsnode.NodeCopyOnEval {
			continue
		}
		flags := depsnode.RelNoFlush | depsnode.RelGodmode
		if comp.Type() == depsnode.NodeGeometry && flushesGeometry(idType) {
			flags &^= depsnode.RelNoFlush
		}

		entry := comp.Entry()
		if entry != nil {
			b.connect(cow, entry, "Copy-on-Eval Relation", flags)
		}
		// Operations that nothing inside their component orders wait for the
		// copy as well.
		for _, op := range comp.Operations() {
			if op == entry || hasComponentInput(op) {
				continue
			}
			b.connect(cow, op, "Copy-on-Eval Relation", flags)
		}
	}

	// An object is copied after its data.
	if ob, ok := n.Orig.(*scene.Object); ok && ob.Data != nil && ob.Data.DataID().Type.NeedsEvalCopy() {
		b.addRelation(opKey(ob.Data, depsnode.NodeCopyOnEval, depsnode.OpCopyOnEval), opKey(ob, depsnode.NodeCopyOnEval, depsnode.OpCopyOnEval), "Eval Order", depsnode.RelGodmode)
	}
}

// flushesGeometry reports whether a geometry change of the data-block type
// has to reach its copy.
func flushesGeometry(t scene.IDType) bool {
	switch t {
	case scene.IDMesh, scene.IDCurve, scene.IDLattice:
		return true
	}
	return false
}

func hasComponentInput(op *depsnode.OperationNode) bool {
	for _, rel := range op.Inlinks() {
		if from, ok := rel.From.(*depsnode.OperationNode); ok && from.Owner() == op.Owner() {
			return true
		}
	}
	return false
}
