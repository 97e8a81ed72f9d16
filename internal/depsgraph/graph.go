package depsgraph

import (
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/vk/evalgraph/internal/depsnode"
	"github.com/vk/evalgraph/internal/scene"
)

// Owner is the scene context a graph evaluates.
type Owner struct {
	Main  *scene.Main
	Scene *scene.Scene
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger used for invariant violations and mirror
// lookups.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) { g.logger = logger }
}

// WithStrictInvariants makes AddRelation reject copy-on-eval ordering
// violations instead of logging them.
func WithStrictInvariants() Option {
	return func(g *Graph) { g.StrictInvariants = true }
}

// Graph holds all nodes and relations for one scene.
type Graph struct {
	// ID identifies the graph instance in logs and notifications.
	ID string

	owner Owner

	idNodes      map[scene.Entity]*depsnode.IDNode
	idOrder      []*depsnode.IDNode
	typesPresent map[scene.IDType]struct{}
	timeSource   *depsnode.TimeSourceNode

	relations []*depsnode.Relation

	// StrictInvariants turns copy-on-eval ordering violations into errors.
	StrictInvariants bool

	evaluating atomic.Bool
	active     atomic.Bool

	lock    spinLock
	pending map[*depsnode.OperationNode]struct{}

	logger *slog.Logger
}

// New creates an empty graph for owner.
func New(owner Owner, opts ...Option) *Graph {
	g := &Graph{
		ID:           uuid.NewString(),
		owner:        owner,
		idNodes:      make(map[scene.Entity]*depsnode.IDNode),
		typesPresent: make(map[scene.IDType]struct{}),
		pending:      make(map[*depsnode.OperationNode]struct{}),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("graph", g.ID)
	return g
}

// Free destroys every node and relation. The graph must not be used
// afterwards.
func (g *Graph) Free() {
	g.Clear()
	g.owner = Owner{}
}

// Owner returns the scene context of the graph.
func (g *Graph) Owner() Owner { return g.owner }

// ReplaceOwner points the graph at a new scene context, e.g. after the
// database was reloaded. Nodes are kept.
func (g *Graph) ReplaceOwner(owner Owner) {
	g.owner = owner
}

// Logger returns the graph's logger.
func (g *Graph) Logger() *slog.Logger { return g.logger }

// FindIDNode returns the node of an authoritative data-block.
func (g *Graph) FindIDNode(orig scene.Entity) *depsnode.IDNode {
	if orig == nil {
		return nil
	}
	return g.idNodes[orig]
}

// AddIDNode returns the node of orig, creating it on first reference. The
// node is marked as referenced by the current build pass.
func (g *Graph) AddIDNode(orig scene.Entity) *depsnode.IDNode {
	if n, ok := g.idNodes[orig]; ok {
		n.Referenced = true
		return n
	}
	n := depsnode.NewIDNode(orig)
	n.Referenced = true
	g.idNodes[orig] = n
	g.idOrder = append(g.idOrder, n)
	g.typesPresent[orig.DataID().Type] = struct{}{}
	return n
}

// IDNodes returns the ID nodes in creation order.
func (g *Graph) IDNodes() []*depsnode.IDNode {
	out := make([]*depsnode.IDNode, len(g.idOrder))
	copy(out, g.idOrder)
	return out
}

// HasType reports whether a data-block of type t was ever added.
func (g *Graph) HasType(t scene.IDType) bool {
	_, ok := g.typesPresent[t]
	return ok
}

// TimeSource returns the graph's time source node.
func (g *Graph) TimeSource() *depsnode.TimeSourceNode {
	if g.timeSource == nil {
		n, _ := depsnode.Create(depsnode.NodeTimeSource, nil, "Time Source")
		g.timeSource = n.(*depsnode.TimeSourceNode)
	}
	return g.timeSource
}

// ResolveMirror returns the copy-on-eval mirror of orig, or orig itself when
// it was never expanded.
func (g *Graph) ResolveMirror(orig scene.Entity) scene.Entity {
	n := g.FindIDNode(orig)
	if n == nil || n.Mirror() == nil {
		g.logger.Debug("Mirror requested for unexpanded data-block.", "id", orig.DataID().Key())
		return orig
	}
	return n.Mirror()
}

// ExpandMirror creates the mirror of orig once and returns it.
func (g *Graph) ExpandMirror(orig scene.Entity) scene.Entity {
	return g.AddIDNode(orig).ExpandMirror()
}

// Clear destroys all ID nodes and relations.
func (g *Graph) Clear() {
	g.clearRelations()
	for _, n := range g.clearOrder() {
		n.ClearComponents()
		n.ReleaseMirror()
	}
	g.idNodes = make(map[scene.Entity]*depsnode.IDNode)
	g.idOrder = nil
	g.typesPresent = make(map[scene.IDType]struct{})
	g.timeSource = nil
	g.ClearPendingUpdates()
}

// clearOrder lists ID nodes in destruction order: containers first, since
// releasing them may release members, particle settings last, since
// everything else may reference them weakly.
func (g *Graph) clearOrder() []*depsnode.IDNode {
	out := make([]*depsnode.IDNode, 0, len(g.idOrder))
	for _, n := range g.idOrder {
		if n.IDType().IsContainer() {
			out = append(out, n)
		}
	}
	for _, n := range g.idOrder {
		t := n.IDType()
		if !t.IsContainer() && t != scene.IDParticleSettings {
			out = append(out, n)
		}
	}
	for _, n := range g.idOrder {
		if n.IDType() == scene.IDParticleSettings {
			out = append(out, n)
		}
	}
	return out
}

// BeginRebuild drops every component and relation while keeping ID nodes
// and their mirrors, and clears the referenced mark of every ID node.
func (g *Graph) BeginRebuild() {
	g.clearRelations()
	for _, n := range g.idOrder {
		n.ClearComponents()
		n.Referenced = false
		n.DirectlyVisible = false
	}
	g.timeSource = nil
	g.ClearPendingUpdates()
}

// EndRebuild destroys ID nodes that the build pass did not reference or
// whose data-block alive rejects, and returns how many were destroyed.
func (g *Graph) EndRebuild(alive func(scene.Entity) bool) int {
	kept := g.idOrder[:0]
	removed := 0
	for _, n := range g.idOrder {
		if n.Referenced && (alive == nil || alive(n.Orig)) {
			kept = append(kept, n)
			continue
		}
		g.logger.Debug("Destroying stale ID node.", "id", n.Name())
		n.ClearComponents()
		n.ReleaseMirror()
		delete(g.idNodes, n.Orig)
		removed++
	}
	for i := len(kept); i < len(g.idOrder); i++ {
		g.idOrder[i] = nil
	}
	g.idOrder = kept
	return removed
}

// Operations returns every operation node in deterministic order.
func (g *Graph) Operations() []*depsnode.OperationNode {
	var out []*depsnode.OperationNode
	for _, n := range g.idOrder {
		for _, c := range n.Components() {
			out = append(out, c.Operations()...)
		}
	}
	return out
}

// IsEvaluating reports whether an evaluator is currently walking the graph.
func (g *Graph) IsEvaluating() bool { return g.evaluating.Load() }

// SetEvaluating is called by the evaluator around a walk.
func (g *Graph) SetEvaluating(v bool) { g.evaluating.Store(v) }

// IsActive reports whether the graph is the one whose results are shown.
func (g *Graph) IsActive() bool { return g.active.Load() }

// SetActive marks the graph as active or inactive.
func (g *Graph) SetActive(v bool) { g.active.Store(v) }

// TagForUpdate queues op for re-evaluation. Safe for concurrent use.
func (g *Graph) TagForUpdate(op *depsnode.OperationNode) {
	g.lock.Lock()
	g.pending[op] = struct{}{}
	op.Flags |= depsnode.OpFlagNeedsUpdate
	g.lock.Unlock()
}

// PendingUpdates returns the queued operations in graph order. Safe for
// concurrent use.
func (g *Graph) PendingUpdates() []*depsnode.OperationNode {
	g.lock.Lock()
	defer g.lock.Unlock()

	out := make([]*depsnode.OperationNode, 0, len(g.pending))
	for _, op := range g.Operations() {
		if _, ok := g.pending[op]; ok {
			out = append(out, op)
		}
	}
	return out
}

// ClearPendingUpdates empties the queue. Safe for concurrent use.
func (g *Graph) ClearPendingUpdates() {
	g.lock.Lock()
	for op := range g.pending {
		op.Flags &^= depsnode.OpFlagNeedsUpdate
	}
	g.pending = make(map[*depsnode.OperationNode]struct{})
	g.lock.Unlock()
}

// Stats summarizes the size of the graph.
type Stats struct {
	IDNodes    int
	Components int
	Operations int
	Relations  int
	Cyclic     int
}

// Stats counts nodes and relations.
func (g *Graph) Stats() Stats {
	s := Stats{IDNodes: len(g.idOrder), Relations: len(g.relations)}
	for _, n := range g.idOrder {
		for _, c := range n.Components() {
			s.Components++
			s.Operations += c.Len()
		}
	}
	for _, rel := range g.relations {
		if rel.Flags.Has(depsnode.RelCyclic) {
			s.Cyclic++
		}
	}
	return s
}
