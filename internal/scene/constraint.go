package scene

// ConstraintType is the kind of a constraint.
type ConstraintType int

const (
	ConstraintCopyLocation ConstraintType = iota
	ConstraintCopyRotation
	ConstraintCopyScale
	ConstraintCopyTransforms
	ConstraintChildOf
	ConstraintDampedTrack
	ConstraintTrackTo
	ConstraintIK
	ConstraintSplineIK
	ConstraintFollowPath
	ConstraintClampTo
	ConstraintArmature
	ConstraintShrinkwrap
	ConstraintTransformCache
)

var constraintTypeNames = map[ConstraintType]string{
	ConstraintCopyLocation:   "copy_location",
	ConstraintCopyRotation:   "copy_rotation",
	ConstraintCopyScale:      "copy_scale",
	ConstraintCopyTransforms: "copy_transforms",
	ConstraintChildOf:        "child_of",
	ConstraintDampedTrack:    "damped_track",
	ConstraintTrackTo:        "track_to",
	ConstraintIK:             "ik",
	ConstraintSplineIK:       "spline_ik",
	ConstraintFollowPath:     "follow_path",
	ConstraintClampTo:        "clamp_to",
	ConstraintArmature:       "armature",
	ConstraintShrinkwrap:     "shrinkwrap",
	ConstraintTransformCache: "transform_cache",
}

func (t ConstraintType) String() string { return constraintTypeNames[t] }

// ParseConstraintType maps a snake_case constraint type name to its value.
func ParseConstraintType(s string) (ConstraintType, bool) {
	for t, name := range constraintTypeNames {
		if name == s {
			return t, true
		}
	}
	return ConstraintCopyLocation, false
}

// IsChain reports whether the constraint is solved as a pose chain rather
// than per bone.
func (t ConstraintType) IsChain() bool {
	return t == ConstraintIK || t == ConstraintSplineIK
}

// ReadsWorldMatrix reports whether the constraint reads the owner's own
// world transform and therefore needs the local transform computed first.
func (t ConstraintType) ReadsWorldMatrix() bool {
	switch t {
	case ConstraintChildOf, ConstraintCopyTransforms, ConstraintTransformCache:
		return true
	}
	return false
}

// ConstraintTarget is one target slot of a constraint.
type ConstraintTarget struct {
	Object *Object
	// Subtarget is a bone name for armature targets or a vertex group name
	// for mesh and lattice targets.
	Subtarget string
}

// Constraint is one entry of an object or pose channel constraint stack.
type Constraint struct {
	Name     string
	Type     ConstraintType
	Disabled bool
	Targets  []*ConstraintTarget

	// UseBBoneShape makes bone subtargets read the curved B-Bone shape.
	UseBBoneShape bool

	IK       *IKSettings
	SplineIK *SplineIKSettings
}

// IKSettings configures an inverse kinematics chain.
type IKSettings struct {
	Target        *Object
	Subtarget     string
	PoleTarget    *Object
	PoleSubtarget string
	// ChainCount limits the chain length; zero means up to the top-most bone.
	ChainCount int
	UseTip     bool
}

// SplineIKSettings configures a chain following a curve.
type SplineIKSettings struct {
	Curve *Object
	// ChainCount is the number of bones following the curve, counting the
	// owner. Unlike IK there is no "whole hierarchy" value; it is at least 1.
	ChainCount int
}

func findConstraint(stack []*Constraint, name string) (*Constraint, bool) {
	for _, con := range stack {
		if con.Name == name {
			return con, true
		}
	}
	return nil, false
}
