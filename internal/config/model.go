package config

import (
	"errors"
	"fmt"

	"github.com/vk/evalgraph/internal/scene"
)

// ErrSceneNotFound is returned when the requested scene is not part of the
// loaded model.
var ErrSceneNotFound = errors.New("scene not found")

// Model is the unified representation of everything a loader read.
type Model struct {
	Main *scene.Main
	// Files lists the source files in load order.
	Files []string
}

// NewModel returns a model with an empty database.
func NewModel() *Model {
	return &Model{Main: scene.NewMain()}
}

// Scene returns the scene with the given name. An empty name selects the
// first scene that was loaded.
func (m *Model) Scene(name string) (*scene.Scene, error) {
	scenes := m.Main.Scenes()
	if name == "" {
		if len(scenes) == 0 {
			return nil, fmt.Errorf("%w: model has no scenes", ErrSceneNotFound)
		}
		return scenes[0], nil
	}
	for _, sc := range scenes {
		if sc.Name == name {
			return sc, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSceneNotFound, name)
}
