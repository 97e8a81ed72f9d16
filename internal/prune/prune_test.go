package prune

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/evalgraph/internal/depsgraph"
	"github.com/vk/evalgraph/internal/depsnode"
	"github.com/vk/evalgraph/internal/scene"
)

func noopEval(context.Context) error { return nil }

type chain struct {
	g        *depsgraph.Graph
	producer *depsnode.OperationNode
	middle   *depsnode.OperationNode
	tail     *depsnode.OperationNode
}

// newChain builds producer -> middle -> tail where middle and tail are
// no-ops.
func newChain(t *testing.T) chain {
	t.Helper()
	g := depsgraph.New(depsgraph.Owner{})
	ob := scene.NewObject("Cube", scene.ObjectMesh)
	comp, err := g.AddIDNode(ob).AddComponent(depsnode.NodeParameters, "")
	require.NoError(t, err)

	c := chain{
		g:        g,
		producer: comp.AddOperation(noopEval, depsnode.OpParametersEval, "", -1),
		middle:   comp.AddOperation(nil, depsnode.OpParametersExit, "", -1),
		tail:     comp.AddOperation(nil, depsnode.OpIDProperty, "prop", -1),
	}
	_, err = g.AddRelation(c.producer, c.middle, "Eval -> Exit", 0)
	require.NoError(t, err)
	_, err = g.AddRelation(c.middle, c.tail, "Exit -> Prop", 0)
	require.NoError(t, err)
	return c
}

func TestRun_Cascades(t *testing.T) {
	t.Parallel()
	c := newChain(t)

	report := Run(context.Background(), c.g, Options{})

	assert.Equal(t, 2, report.RemovedRelations)
	assert.Equal(t, 2, report.Visited)
	assert.Zero(t, report.RemovedNodes)
	assert.Empty(t, c.g.Relations())
	assert.Empty(t, c.producer.Outlinks())
	// Nodes are retained by default.
	assert.Equal(t, 3, c.g.Stats().Operations)
}

func TestRun_PinnedStopsCascade(t *testing.T) {
	t.Parallel()
	c := newChain(t)
	c.tail.Pin()

	report := Run(context.Background(), c.g, Options{})

	assert.Zero(t, report.RemovedRelations)
	assert.Len(t, c.g.Relations(), 2)
}

func TestRun_ConsumerKeepsPlaceholder(t *testing.T) {
	t.Parallel()
	c := newChain(t)
	c.tail.Evaluate = noopEval

	report := Run(context.Background(), c.g, Options{})

	assert.Zero(t, report.RemovedRelations)
	assert.Len(t, c.g.Relations(), 2)
}

func TestRun_Idempotent(t *testing.T) {
	t.Parallel()
	c := newChain(t)

	first := Run(context.Background(), c.g, Options{})
	before := c.g.Stats()
	second := Run(context.Background(), c.g, Options{})

	assert.Equal(t, 2, first.RemovedRelations)
	assert.Zero(t, second.RemovedRelations)
	assert.Equal(t, before, c.g.Stats())
}

func TestRun_RemoveNodes(t *testing.T) {
	t.Parallel()
	c := newChain(t)

	report := Run(context.Background(), c.g, Options{RemoveNodes: true})

	assert.Equal(t, 2, report.RemovedNodes)
	assert.Equal(t, 1, c.g.Stats().Operations)
	assert.Nil(t, c.middle.Owner())

	again := Run(context.Background(), c.g, Options{RemoveNodes: true})
	assert.Zero(t, again.RemovedRelations)
	assert.Zero(t, again.RemovedNodes)
}
