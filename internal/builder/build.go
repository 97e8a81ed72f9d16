package builder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/evalgraph/internal/ctxlog"
	"github.com/vk/evalgraph/internal/depsgraph"
	"github.com/vk/evalgraph/internal/depsnode"
	"github.com/vk/evalgraph/internal/prune"
	"github.com/vk/evalgraph/internal/scene"
)

// ErrNoScene is returned when the graph's owner has no scene to build.
var ErrNoScene = errors.New("graph owner has no scene")

// Options configures a build.
type Options struct {
	Prune prune.Options
	// SkipCycleSolver leaves cyclic relations unmarked.
	SkipCycleSolver bool
}

// Result describes a finished build.
type Result struct {
	Stats    depsgraph.Stats
	Pruned   prune.Report
	Cyclic   []*depsnode.Relation
	Removed  int
	Skipped  int
	Duration time.Duration
	// RootMaps holds the chain roots of every rig, keyed by armature object.
	RootMaps map[*scene.Object]*RootChainMap
}

// Build rebuilds every component and relation of g from its owner's scene.
// ID nodes and their evaluated copies survive the rebuild as long as their
// data-block is still part of the scene. On error g is left partially
// rebuilt; callers should free it.
func Build(ctx context.Context, g *depsgraph.Graph, opts Options) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	owner := g.Owner()
	if owner.Scene == nil {
		return nil, ErrNoScene
	}

	start := time.Now()
	logger.Debug("Build: Starting graph construction.", "graph", g.ID, "scene", owner.Scene.Name)
	g.BeginRebuild()

	b := newBuilder(ctx, g)
	b.createNodes(owner.Scene)
	b.linkNodes(owner.Scene)
	if b.rejected != nil {
		return nil, fmt.Errorf("error building graph for scene %s: %w", owner.Scene.Name, b.rejected)
	}

	// Everything the walk reached was marked referenced; the rest left the
	// scene.
	removed := g.EndRebuild(nil)
	logger.Debug("Build: Stale ID nodes removed.", "count", removed)

	pruned := prune.Run(ctx, g, opts.Prune)

	var cyclic []*depsnode.Relation
	if !opts.SkipCycleSolver {
		cyclic = g.SolveCycles(ctx)
		logger.Debug("Build: Cycle solver finished.", "cyclic", len(cyclic))
	}

	res := &Result{
		Stats:    g.Stats(),
		Pruned:   pruned,
		Cyclic:   cyclic,
		Removed:  removed,
		Skipped:  b.skipped,
		Duration: time.Since(start),
		RootMaps: b.rootMaps,
	}
	logger.Info("Build: Graph construction successful.",
		"id_nodes", res.Stats.IDNodes,
		"operations", res.Stats.Operations,
		"relations", res.Stats.Relations,
		"cyclic", res.Stats.Cyclic,
		"duration", res.Duration,
	)
	return res, nil
}
