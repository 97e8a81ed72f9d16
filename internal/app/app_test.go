package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/evalgraph/internal/builder"
	"github.com/vk/evalgraph/internal/config"
	"github.com/vk/evalgraph/internal/depsgraph"
	"github.com/vk/evalgraph/internal/hcl"
	"github.com/vk/evalgraph/internal/publish"
)

const rigScene = `
scene "Main" {
  objects = ["Rig", "Target", "Prop"]
}

object "Target" {}

object "Prop" {
  parent = "Rig"
}

armature "RigData" {
  bone "Root" {}
  bone "Arm" { parent = "Root" }
}

object "Rig" {
  kind = "armature"
  data = "RigData"

  pose_bone "Arm" {
    constraint "IK" {
      type = "ik"
      target {
        object = "Target"
      }
    }
  }
}
`

const rigSceneWithoutProp = `
scene "Main" {
  objects = ["Rig", "Target"]
}

object "Target" {}

armature "RigData" {
  bone "Root" {}
  bone "Arm" { parent = "Root" }
}

object "Rig" {
  kind = "armature"
  data = "RigData"
}
`

// recorder collects published notices.
type recorder struct {
	mu      sync.Mutex
	notices []publish.Notice
	closed  bool
	err     error
}

func (r *recorder) Publish(_ context.Context, n publish.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return r.err
}

func (r *recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recorder) all() []publish.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]publish.Notice(nil), r.notices...)
}

func writeScene(t *testing.T, dir, content string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, "scene.hcl"), []byte(content), 0o600)
	require.NoError(t, err, "failed to set up test file")
}

func newTestApp(t *testing.T, cfg Config, opts ...Option) (*App, *SafeBuffer) {
	t.Helper()
	c, err := NewConfig(cfg)
	require.NoError(t, err)
	return SetupAppTest(t, c, hcl.NewLoader(), opts...)
}

func TestRun_BuildsGraph(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeScene(t, dir, rigScene)
	rec := &recorder{}

	a, logs := newTestApp(t, Config{ScenePaths: []string{dir}, Strict: true}, WithPublisher(rec))
	require.NoError(t, a.Run(context.Background()))

	res := a.Result()
	require.NotNil(t, res)
	assert.Positive(t, res.Stats.Relations)
	assert.Empty(t, res.Cyclic)

	notices := rec.all()
	require.Len(t, notices, 1)
	assert.Equal(t, a.Graph().ID, notices[0].GraphID)
	assert.Equal(t, "Main", notices[0].Scene)
	assert.Equal(t, res.Stats.Relations, notices[0].Relations)
	assert.True(t, rec.closed)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.metrics.BuildsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.metrics.Notifications.WithLabelValues("success")))
	assert.Contains(t, logs.String(), "Dependency graph built.")
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	t.Run("no scene files", func(t *testing.T) {
		a, _ := newTestApp(t, Config{ScenePaths: []string{t.TempDir()}})
		err := a.Run(context.Background())
		assert.ErrorIs(t, err, hcl.ErrNoSceneFiles)
		assert.ErrorContains(t, err, "failed to load scene")
		assert.Nil(t, a.Graph())
	})

	t.Run("unknown scene", func(t *testing.T) {
		dir := t.TempDir()
		writeScene(t, dir, rigScene)
		a, _ := newTestApp(t, Config{ScenePaths: []string{dir}, SceneName: "Other"})
		assert.ErrorIs(t, a.Run(context.Background()), config.ErrSceneNotFound)
	})

	t.Run("publisher unreachable", func(t *testing.T) {
		dir := t.TempDir()
		writeScene(t, dir, rigScene)
		a, _ := newTestApp(t, Config{ScenePaths: []string{dir}, PublishURL: "http://127.0.0.1:9"})
		dialErr := errors.New("connection refused")
		a.dial = func(context.Context, publish.Options) (publish.Publisher, error) {
			return nil, dialErr
		}

		err := a.Run(context.Background())
		assert.ErrorIs(t, err, dialErr)
		assert.ErrorContains(t, err, "failed to connect publisher")
	})

	t.Run("publish failure does not fail the build", func(t *testing.T) {
		dir := t.TempDir()
		writeScene(t, dir, rigScene)
		rec := &recorder{err: publish.ErrNotConnected}
		a, logs := newTestApp(t, Config{ScenePaths: []string{dir}}, WithPublisher(rec))

		require.NoError(t, a.Run(context.Background()))
		assert.Equal(t, 1.0, testutil.ToFloat64(a.metrics.Notifications.WithLabelValues("error")))
		assert.Contains(t, logs.String(), "Failed to publish rebuild notice.")
	})
}

func TestRun_ServeRebuilds(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeScene(t, dir, rigScene)
	rec := &recorder{}

	a, _ := newTestApp(t, Config{ScenePaths: []string{dir}, Serve: true}, WithPublisher(rec))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return len(rec.all()) == 1 }, 5*time.Second, 10*time.Millisecond)
	graphID := a.Graph().ID

	writeScene(t, dir, rigSceneWithoutProp)
	a.TriggerRebuild()
	require.Eventually(t, func() bool { return len(rec.all()) == 2 }, 5*time.Second, 10*time.Millisecond)

	notices := rec.all()
	assert.Equal(t, graphID, notices[1].GraphID, "rebuilds reuse the graph")
	assert.Less(t, notices[1].IDNodes, notices[0].IDNodes)
	assert.Positive(t, notices[1].Removed)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(a.metrics.BuildsTotal.WithLabelValues("success")))
}

func TestRun_ServeFailedRebuilds(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeScene(t, dir, rigScene)
	rec := &recorder{}

	a, logs := newTestApp(t, Config{ScenePaths: []string{dir}, Serve: true, Strict: true}, WithPublisher(rec))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return len(rec.all()) == 1 }, 5*time.Second, 10*time.Millisecond)
	g := a.Graph()
	require.NotNil(t, g)

	t.Run("load error keeps the graph", func(t *testing.T) {
		writeScene(t, dir, `object "A" {`)
		a.TriggerRebuild()
		require.Eventually(t, func() bool {
			return strings.Count(logs.String(), "Rebuild failed.") == 1
		}, 5*time.Second, 10*time.Millisecond)

		assert.Same(t, g, a.Graph())
		assert.NotNil(t, a.Result())
		assert.Len(t, rec.all(), 1)
	})

	t.Run("build error drops the graph", func(t *testing.T) {
		writeScene(t, dir, rigScene)
		a.build = func(context.Context, *depsgraph.Graph, builder.Options) (*builder.Result, error) {
			return nil, depsgraph.ErrCopyOnEvalOrder
		}
		a.TriggerRebuild()
		require.Eventually(t, func() bool {
			return strings.Count(logs.String(), "Rebuild failed.") == 2
		}, 5*time.Second, 10*time.Millisecond)

		notices := rec.all()
		require.Len(t, notices, 2)
		assert.NotEmpty(t, notices[1].Error)
		assert.Nil(t, a.Graph())
		assert.Nil(t, a.Result())

		rr := httptest.NewRecorder()
		a.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(a.metrics.BuildsTotal.WithLabelValues("error")))
}

func TestRoutes(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeScene(t, dir, rigScene)
	a, _ := newTestApp(t, Config{ScenePaths: []string{dir}}, WithPublisher(publish.Nop{}))
	h := a.routes()

	get := func(path string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		return rr
	}

	assert.Equal(t, http.StatusOK, get("/health").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get("/ready").Code)

	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t, http.StatusOK, get("/ready").Code)

	rr := get("/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "evalgraph_builds_total")
	assert.Contains(t, rr.Body.String(), "evalgraph_relations")
}
