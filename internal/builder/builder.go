package builder

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vk/evalgraph/internal/ctxlog"
	"github.com/vk/evalgraph/internal/depsgraph"
	"github.com/vk/evalgraph/internal/depsnode"
	"github.com/vk/evalgraph/internal/resolver"
	"github.com/vk/evalgraph/internal/scene"
)

// Builder holds the state of one build pass.
type Builder struct {
	graph  *depsgraph.Graph
	query  *resolver.Query
	logger *slog.Logger

	created  map[scene.Entity]struct{}
	linked   map[scene.Entity]struct{}
	rootMaps map[*scene.Object]*RootChainMap

	skipped  int
	rejected error
}

func newBuilder(ctx context.Context, g *depsgraph.Graph) *Builder {
	return &Builder{
		graph:    g,
		query:    resolver.NewQuery(g),
		logger:   ctxlog.FromContext(ctx).With("graph", g.ID),
		created:  make(map[scene.Entity]struct{}),
		linked:   make(map[scene.Entity]struct{}),
		rootMaps: make(map[*scene.Object]*RootChainMap),
	}
}

// firstVisit marks e as visited in the given set and reports whether this
// was the first visit.
func firstVisit(set map[scene.Entity]struct{}, e scene.Entity) bool {
	if e == nil {
		return false
	}
	if _, ok := set[e]; ok {
		return false
	}
	set[e] = struct{}{}
	return true
}

// evaluate returns the callback of an operation. Evaluation itself happens
// in an external evaluator; the callback only binds the operation to the
// evaluated copy of its data-block.
func evaluate(g *depsgraph.Graph, e scene.Entity, opcode depsnode.OperationCode) depsnode.EvalFunc {
	return func(ctx context.Context) error {
		ctxlog.FromContext(ctx).Debug("Evaluating operation.", "id", g.ResolveMirror(e).DataID().Key(), "op", opcode.String())
		return nil
	}
}

// addOperation creates the operation k names, with an evaluation callback
// unless noop is set.
func (b *Builder) addOperation(k operationKey, noop bool) *depsnode.OperationNode {
	n := b.graph.AddIDNode(k.id)
	comp, err := n.AddComponent(k.typ, k.compName)
	if err != nil {
		b.logger.Error("Failed to add component.", "key", k.String(), "error", err)
		return nil
	}
	var fn depsnode.EvalFunc
	if !noop {
		fn = evaluate(b.graph, k.id, k.opcode)
	}
	return comp.AddOperation(fn, k.opcode, k.name, k.tag)
}

func (b *Builder) op(k operationKey) *depsnode.OperationNode { return b.addOperation(k, false) }

func (b *Builder) noop(k operationKey) *depsnode.OperationNode { return b.addOperation(k, true) }

func setEntry(op *depsnode.OperationNode) *depsnode.OperationNode {
	if op != nil {
		op.Owner().SetEntry(op)
	}
	return op
}

func setExit(op *depsnode.OperationNode) *depsnode.OperationNode {
	if op != nil {
		op.Owner().SetExit(op)
	}
	return op
}

// addRelation links the nodes named by from and to. Components resolve to
// their exit (source) and entry (destination) operations. Missing endpoints
// are logged and skipped.
func (b *Builder) addRelation(from, to key, description string, flags depsnode.RelationFlag) *depsnode.Relation {
	src := from.find(b)
	dst := to.find(b)
	if src == nil || dst == nil {
		b.skip(from, to, description, "node not found")
		return nil
	}
	src = exitOf(src)
	dst = entryOf(dst)
	if src == nil || dst == nil {
		b.skip(from, to, description, "component has no entry or exit operation")
		return nil
	}
	return b.connect(src, dst, description, flags)
}

func (b *Builder) connect(from, to depsnode.Node, description string, flags depsnode.RelationFlag) *depsnode.Relation {
	rel, err := b.graph.AddRelation(from, to, description, flags)
	if err != nil {
		if errors.Is(err, depsgraph.ErrCopyOnEvalOrder) && b.rejected == nil {
			b.rejected = err
		}
		b.logger.Warn("Relation rejected.", "error", err)
		return nil
	}
	return rel
}

func (b *Builder) skip(from, to key, description, reason string) {
	b.skipped++
	b.logger.Debug("Skipping relation.", "from", from.String(), "to", to.String(), "description", description, "reason", reason)
}
