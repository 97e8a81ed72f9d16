package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/evalgraph/internal/builder"
	"github.com/vk/evalgraph/internal/ctxlog"
	"github.com/vk/evalgraph/internal/depsgraph"
	"github.com/vk/evalgraph/internal/prune"
	"github.com/vk/evalgraph/internal/publish"
)

// Run loads the scene, builds its dependency graph and announces the
// result. In serve mode it then waits for rebuild requests until ctx is done.
func (a *App) Run(ctx context.Context) (err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(a.config.HealthcheckPort)
		defer func() {
			err = errors.Join(err, a.closeHealthcheckServer())
		}()
	}

	pub, err := a.connectPublisher(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := pub.Close(); cerr != nil {
			a.logger.Warn("Failed to close publisher.", "error", cerr)
		}
	}()

	if err := a.rebuildOnce(ctx, pub); err != nil {
		return err
	}
	if !a.config.Serve {
		a.logger.Debug("App.Run method finished.")
		return nil
	}

	a.logger.Info("Serving; waiting for rebuild requests.")
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Shutting down.")
			if g := a.Graph(); g != nil {
				g.Free()
			}
			return nil
		case <-a.rebuild:
			// A scene that fails to load leaves the previous graph in place;
			// a failed build drops it.
			if err := a.rebuildOnce(ctx, pub); err != nil {
				a.logger.Error("Rebuild failed.", "error", err)
			}
		}
	}
}

func (a *App) connectPublisher(ctx context.Context) (publish.Publisher, error) {
	if a.publisher != nil {
		return a.publisher, nil
	}
	if a.config.PublishURL == "" {
		return publish.Nop{}, nil
	}
	pub, err := a.dial(ctx, publish.Options{
		URL:                a.config.PublishURL,
		Namespace:          a.config.PublishNamespace,
		Event:              a.config.PublishEvent,
		InsecureSkipVerify: a.config.PublishInsecure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect publisher: %w", err)
	}
	return pub, nil
}

// rebuildOnce (re)loads the scene files and builds the graph. The first call
// creates the graph; later calls rebuild it in place against the reloaded
// scene so that surviving nodes keep their identity.
func (a *App) rebuildOnce(ctx context.Context, pub publish.Publisher) error {
	a.logger.Debug("Loading scene files...", "paths", a.config.ScenePaths)
	model, err := a.loader.Load(ctx, a.config.ScenePaths...)
	if err != nil {
		return fmt.Errorf("failed to load scene: %w", err)
	}
	sc, err := model.Scene(a.config.SceneName)
	if err != nil {
		return err
	}
	owner := depsgraph.Owner{Main: model.Main, Scene: sc}

	g := a.Graph()
	if g == nil {
		opts := []depsgraph.Option{depsgraph.WithLogger(a.logger)}
		if a.config.Strict {
			opts = append(opts, depsgraph.WithStrictInvariants())
		}
		g = depsgraph.New(owner, opts...)
	} else {
		g.ReplaceOwner(owner)
	}

	a.logger.Debug("Building dependency graph...", "scene", sc.Name, "graph", g.ID)
	res, buildErr := a.build(ctx, g, builder.Options{
		Prune:           prune.Options{RemoveNodes: a.config.RemoveNodes},
		SkipCycleSolver: a.config.SkipCycleSolver,
	})
	a.metrics.ObserveBuild(res, buildErr)

	perr := pub.Publish(ctx, publish.NewNotice(g.ID, sc.Name, res, buildErr))
	a.metrics.ObserveNotification(perr)
	if perr != nil {
		a.logger.Warn("Failed to publish rebuild notice.", "error", perr)
	}

	if buildErr != nil {
		// The graph was rebuilt in place and is now half-built.
		a.mu.Lock()
		a.graph, a.result = nil, nil
		a.mu.Unlock()
		g.Free()
		return fmt.Errorf("failed to build dependency graph: %w", buildErr)
	}

	a.mu.Lock()
	a.graph, a.result = g, res
	a.mu.Unlock()

	a.logger.Info("🏁 Dependency graph built.",
		"scene", sc.Name,
		"id_nodes", res.Stats.IDNodes,
		"operations", res.Stats.Operations,
		"relations", res.Stats.Relations,
		"cyclic", len(res.Cyclic),
		"pruned", res.Pruned.RemovedRelations,
		"duration", res.Duration,
	)
	if len(res.Cyclic) > 0 {
		a.logger.Warn("Dependency cycles detected.", "count", len(res.Cyclic))
	}
	return nil
}
