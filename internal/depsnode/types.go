package depsnode

// NodeClass groups node types into the three layers of the graph.
type NodeClass int

const (
	ClassGeneric NodeClass = iota
	ClassComponent
	ClassOperation
)

func (c NodeClass) String() string {
	switch c {
	case ClassGeneric:
		return "GENERIC"
	case ClassComponent:
		return "COMPONENT"
	case ClassOperation:
		return "OPERATION"
	}
	return "UNKNOWN"
}

// NodeType is the tag of a node.
type NodeType int

const (
	NodeUndefined NodeType = iota
	NodeOperation

	// Generic nodes.
	NodeTimeSource
	NodeIDRef

	// Component nodes.
	NodeParameters
	NodeAnimation
	NodeTransform
	NodeGeometry
	NodeSequencer
	NodeCopyOnEval
	NodeObjectFromLayer
	NodeVisibility
	NodeSynchronization
	NodeEvalPose
	NodeBone
	NodeArmature

	numNodeTypes
)

// OperationCode identifies what an operation node computes.
type OperationCode int

const (
	OpOperation OperationCode = iota

	// Generic parameters.
	OpIDProperty
	OpParametersEntry
	OpParametersEval
	OpParametersExit
	OpDimensions

	// Animation.
	OpAnimationEntry
	OpAnimationEval
	OpAnimationExit
	OpDriver

	// Scene membership.
	OpObjectFromLayerEntry
	OpObjectBaseFlags
	OpObjectFromLayerExit

	// Object transform.
	OpTransformInit
	OpTransformLocal
	OpTransformParent
	OpTransformConstraints
	OpTransformEval
	OpTransformSimulationInit
	OpTransformFinal

	// Geometry.
	OpGeometryEvalInit
	OpGeometryEval
	OpGeometryEvalDone
	OpGeometryShapekey

	OpVisibility

	// Pose.
	OpPoseInit
	OpPoseInitIK
	OpPoseCleanup
	OpPoseDone
	OpPoseIKSolver
	OpPoseSplineIKSolver

	// Individual bones.
	OpBoneLocal
	OpBonePoseParent
	OpBoneConstraints
	OpBoneReady
	OpBoneDone
	OpBoneSegments

	OpArmatureEval

	OpCopyOnEval
	OpSynchronizeToOriginal
	OpSequencesEval
)

var opcodeNames = map[OperationCode]string{
	OpOperation:               "OPERATION",
	OpIDProperty:              "ID_PROPERTY",
	OpParametersEntry:         "PARAMETERS_ENTRY",
	OpParametersEval:          "PARAMETERS_EVAL",
	OpParametersExit:          "PARAMETERS_EXIT",
	OpDimensions:              "DIMENSIONS",
	OpAnimationEntry:          "ANIMATION_ENTRY",
	OpAnimationEval:           "ANIMATION_EVAL",
	OpAnimationExit:           "ANIMATION_EXIT",
	OpDriver:                  "DRIVER",
	OpObjectFromLayerEntry:    "OBJECT_FROM_LAYER_ENTRY",
	OpObjectBaseFlags:         "OBJECT_BASE_FLAGS",
	OpObjectFromLayerExit:     "OBJECT_FROM_LAYER_EXIT",
	OpTransformInit:           "TRANSFORM_INIT",
	OpTransformLocal:          "TRANSFORM_LOCAL",
	OpTransformParent:         "TRANSFORM_PARENT",
	OpTransformConstraints:    "TRANSFORM_CONSTRAINTS",
	OpTransformEval:           "TRANSFORM_EVAL",
	OpTransformSimulationInit: "TRANSFORM_SIMULATION_INIT",
	OpTransformFinal:          "TRANSFORM_FINAL",
	OpGeometryEvalInit:        "GEOMETRY_EVAL_INIT",
	OpGeometryEval:            "GEOMETRY_EVAL",
	OpGeometryEvalDone:        "GEOMETRY_EVAL_DONE",
	OpGeometryShapekey:        "GEOMETRY_SHAPEKEY",
	OpVisibility:              "VISIBILITY",
	OpPoseInit:                "POSE_INIT",
	OpPoseInitIK:              "POSE_INIT_IK",
	OpPoseCleanup:             "POSE_CLEANUP",
	OpPoseDone:                "POSE_DONE",
	OpPoseIKSolver:            "POSE_IK_SOLVER",
	OpPoseSplineIKSolver:      "POSE_SPLINE_IK_SOLVER",
	OpBoneLocal:               "BONE_LOCAL",
	OpBonePoseParent:          "BONE_POSE_PARENT",
	OpBoneConstraints:         "BONE_CONSTRAINTS",
	OpBoneReady:               "BONE_READY",
	OpBoneDone:                "BONE_DONE",
	OpBoneSegments:            "BONE_SEGMENTS",
	OpArmatureEval:            "ARMATURE_EVAL",
	OpCopyOnEval:              "COPY_ON_EVAL",
	OpSynchronizeToOriginal:   "SYNCHRONIZE_TO_ORIGINAL",
	OpSequencesEval:           "SEQUENCES_EVAL",
}

func (c OperationCode) String() string {
	if name, ok := opcodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
