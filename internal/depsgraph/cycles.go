package depsgraph

import (
	"context"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vk/evalgraph/internal/ctxlog"
	"github.com/vk/evalgraph/internal/depsnode"
)

type nodePair struct {
	from, to int64
}

// SolveCycles marks relations Cyclic until the remaining relations form a
// DAG. Within each strongly connected component the most recently added
// edge whose relations are all non-godmode is cut. Components that can only
// be broken through godmode relations are logged and left alone. It returns
// the relations marked by this call.
func (g *Graph) SolveCycles(ctx context.Context) []*depsnode.Relation {
	logger := ctxlog.FromContext(ctx)

	ids := make(map[depsnode.Node]int64)
	nodes := make(map[int64]depsnode.Node)
	dg := simple.NewDirectedGraph()
	idOf := func(n depsnode.Node) int64 {
		if id, ok := ids[n]; ok {
			return id
		}
		id := int64(len(ids))
		ids[n] = id
		nodes[id] = n
		dg.AddNode(simple.Node(id))
		return id
	}

	edges := make(map[nodePair][]*depsnode.Relation)
	var order []nodePair
	for _, rel := range g.relations {
		if rel.Flags.Has(depsnode.RelCyclic) {
			continue
		}
		p := nodePair{from: idOf(rel.From), to: idOf(rel.To)}
		if _, ok := edges[p]; !ok {
			order = append(order, p)
			dg.SetEdge(dg.NewEdge(simple.Node(p.from), simple.Node(p.to)))
		}
		edges[p] = append(edges[p], rel)
	}

	var marked []*depsnode.Relation
	stuck := make(map[int64]bool)
	for {
		progress := false
		for _, scc := range topo.TarjanSCC(dg) {
			if len(scc) < 2 || stuck[scc[0].ID()] {
				continue
			}
			members := make(map[int64]bool, len(scc))
			for _, n := range scc {
				members[n.ID()] = true
			}

			cut, ok := pickCut(order, edges, members)
			if !ok {
				for id := range members {
					stuck[id] = true
				}
				logger.Warn("Dependency cycle held together by godmode relations.", "size", len(scc), "node", nodes[scc[0].ID()].String())
				continue
			}

			for _, rel := range edges[cut] {
				rel.AddFlags(depsnode.RelCyclic)
				marked = append(marked, rel)
				logger.Warn("Dependency cycle detected, relation marked cyclic.", "relation", rel.String())
			}
			dg.RemoveEdge(cut.from, cut.to)
			delete(edges, cut)
			progress = true
		}
		if !progress {
			break
		}
	}
	return marked
}

// pickCut returns the latest edge inside members with no godmode relation.
func pickCut(order []nodePair, edges map[nodePair][]*depsnode.Relation, members map[int64]bool) (nodePair, bool) {
	for i := len(order) - 1; i >= 0; i-- {
		p := order[i]
		rels, ok := edges[p]
		if !ok || !members[p.from] || !members[p.to] {
			continue
		}
		cuttable := true
		for _, rel := range rels {
			if rel.Flags.Has(depsnode.RelGodmode) {
				cuttable = false
				break
			}
		}
		if cuttable {
			return p, true
		}
	}
	return nodePair{}, false
}
