// Package prune removes placeholder relations from a built graph.
//
// An operation without an evaluation callback exists only to order other
// operations. Once nothing depends on it, the relations leading into it
// order nothing either. Removing them may leave the operations feeding it in
// the same state, so removal cascades backwards through the graph.
package prune

import (
	"context"

	"github.com/vk/evalgraph/internal/ctxlog"
	"github.com/vk/evalgraph/internal/depsgraph"
	"github.com/vk/evalgraph/internal/depsnode"
)

// Options configures a pruning run.
type Options struct {
	// RemoveNodes also detaches the orphaned operations from their
	// components. By default they are kept so that lookups by key keep
	// working after pruning.
	RemoveNodes bool
}

// Report summarizes a pruning run.
type Report struct {
	Visited          int
	RemovedRelations int
	RemovedNodes     int
}

// removable reports whether op orders nothing and computes nothing.
func removable(op *depsnode.OperationNode) bool {
	return op.IsNoop() && !op.IsPinned() && len(op.Outlinks()) == 0
}

// Run prunes g. Running it twice is the same as running it once.
func Run(ctx context.Context, g *depsgraph.Graph, opts Options) Report {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting pruning pass.")

	var (
		report Report
		queue  []*depsnode.OperationNode
		seen   = make(map[*depsnode.OperationNode]struct{})
	)
	push := func(op *depsnode.OperationNode) {
		if _, ok := seen[op]; ok {
			return
		}
		seen[op] = struct{}{}
		queue = append(queue, op)
	}

	for _, op := range g.Operations() {
		if removable(op) {
			push(op)
		}
	}

	var orphans []*depsnode.OperationNode
	for len(queue) > 0 {
		op := queue[0]
		queue = queue[1:]
		report.Visited++

		inlinks := append([]*depsnode.Relation(nil), op.Inlinks()...)
		for _, rel := range inlinks {
			if !g.RemoveRelation(rel) {
				continue
			}
			report.RemovedRelations++
			if from, ok := rel.From.(*depsnode.OperationNode); ok && removable(from) {
				push(from)
			}
		}
		orphans = append(orphans, op)
	}

	if opts.RemoveNodes {
		for _, op := range orphans {
			if len(op.Inlinks()) > 0 || len(op.Outlinks()) > 0 {
				continue
			}
			if comp := op.Owner(); comp != nil && comp.RemoveOperation(op) {
				report.RemovedNodes++
			}
		}
	}

	logger.Debug("Finished pruning pass.", "visited", report.Visited, "removed_relations", report.RemovedRelations, "removed_nodes", report.RemovedNodes)
	return report
}
