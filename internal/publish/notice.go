package publish

import (
	"github.com/vk/evalgraph/internal/builder"
)

// Notice describes one finished rebuild.
type Notice struct {
	GraphID    string
	Scene      string
	IDNodes    int
	Components int
	Operations int
	Relations  int
	Cyclic     int
	Pruned     int
	Removed    int
	Skipped    int
	DurationMS float64
	// Error is set instead of the counts when the build failed.
	Error string
}

// NewNotice summarizes a build result, or its error.
func NewNotice(graphID, scene string, res *builder.Result, err error) Notice {
	n := Notice{GraphID: graphID, Scene: scene}
	if err != nil {
		n.Error = err.Error()
		return n
	}
	if res == nil {
		return n
	}
	n.IDNodes = res.Stats.IDNodes
	n.Components = res.Stats.Components
	n.Operations = res.Stats.Operations
	n.Relations = res.Stats.Relations
	n.Cyclic = len(res.Cyclic)
	n.Pruned = res.Pruned.RemovedRelations
	n.Removed = res.Removed
	n.Skipped = res.Skipped
	n.DurationMS = float64(res.Duration.Microseconds()) / 1000
	return n
}

// payload is the event body sent over the wire.
func (n Notice) payload() map[string]any {
	if n.Error != "" {
		return map[string]any{
			"graph_id": n.GraphID,
			"scene":    n.Scene,
			"error":    n.Error,
		}
	}
	return map[string]any{
		"graph_id":    n.GraphID,
		"scene":       n.Scene,
		"id_nodes":    n.IDNodes,
		"components":  n.Components,
		"operations":  n.Operations,
		"relations":   n.Relations,
		"cyclic":      n.Cyclic,
		"pruned":      n.Pruned,
		"removed":     n.Removed,
		"skipped":     n.Skipped,
		"duration_ms": n.DurationMS,
	}
}
