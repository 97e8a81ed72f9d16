package depsnode

// SceneComponent is the coarse, stable scene-level component enumeration
// exposed to callers outside the graph.
type SceneComponent int

const (
	SceneCompParameters SceneComponent = iota
	SceneCompAnimation
	SceneCompSequencer
)

// ObjectComponent is the coarse, stable object-level component enumeration.
type ObjectComponent int

const (
	ObjectCompAny ObjectComponent = iota
	ObjectCompParameters
	ObjectCompAnimation
	ObjectCompTransform
	ObjectCompGeometry
	ObjectCompEvalPose
	ObjectCompBone
)

// NodeTypeFromSceneComponent maps a scene component to its node type.
func NodeTypeFromSceneComponent(c SceneComponent) NodeType {
	switch c {
	case SceneCompParameters:
		return NodeParameters
	case SceneCompAnimation:
		return NodeAnimation
	case SceneCompSequencer:
		return NodeSequencer
	}
	return NodeUndefined
}

// NodeTypeToSceneComponent is the inverse of NodeTypeFromSceneComponent.
// It reports false for types without a scene-level counterpart.
func NodeTypeToSceneComponent(t NodeType) (SceneComponent, bool) {
	switch t {
	case NodeParameters:
		return SceneCompParameters, true
	case NodeAnimation:
		return SceneCompAnimation, true
	case NodeSequencer:
		return SceneCompSequencer, true
	}
	return SceneCompParameters, false
}

// NodeTypeFromObjectComponent maps an object component to its node type.
// ObjectCompAny maps to NodeUndefined.
func NodeTypeFromObjectComponent(c ObjectComponent) NodeType {
	switch c {
	case ObjectCompParameters:
		return NodeParameters
	case ObjectCompAnimation:
		return NodeAnimation
	case ObjectCompTransform:
		return NodeTransform
	case ObjectCompGeometry:
		return NodeGeometry
	case ObjectCompEvalPose:
		return NodeEvalPose
	case ObjectCompBone:
		return NodeBone
	}
	return NodeUndefined
}

// NodeTypeToObjectComponent maps any node type to the coarse object
// enumeration; types without a counterpart become ObjectCompAny.
func NodeTypeToObjectComponent(t NodeType) ObjectComponent {
	switch t {
	case NodeParameters:
		return ObjectCompParameters
	case NodeAnimation:
		return ObjectCompAnimation
	case NodeTransform:
		return ObjectCompTransform
	case NodeGeometry:
		return ObjectCompGeometry
	case NodeEvalPose:
		return ObjectCompEvalPose
	case NodeBone:
		return ObjectCompBone
	}
	return ObjectCompAny
}
