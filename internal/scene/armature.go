package scene

// Armature is skeleton rest data shared by armature objects.
type Armature struct {
	ID
	Bones []*Bone
}

// NewArmature creates empty armature data.
func NewArmature(name string) *Armature {
	return &Armature{ID: ID{Name: name, Type: IDArmature}}
}

// CopyForEval implements Entity.
func (a *Armature) CopyForEval() Entity {
	c := *a
	c.ID = copyID(a.ID)
	return &c
}

// Bone returns the rest bone with the given name.
func (a *Armature) Bone(name string) (*Bone, bool) {
	for _, b := range a.Bones {
		if b.Name == name {
			return b, true
		}
	}
	return nil, false
}

// AddBone appends a bone parented to parent (which may be nil).
func (a *Armature) AddBone(name string, parent *Bone) *Bone {
	b := &Bone{Name: name, Parent: parent, Segments: 1}
	a.Bones = append(a.Bones, b)
	return b
}

// Bone is a rest-pose bone.
type Bone struct {
	Name   string
	Parent *Bone
	// Segments is the B-Bone subdivision count; values above one make the
	// bone a curved B-Bone with its own shape computation.
	Segments int
	// AddParentEndRoll makes the B-Bone shape inherit the previous handle's roll.
	AddParentEndRoll bool
}

// IKSolver selects the pose-level inverse kinematics solver.
type IKSolver int

const (
	IKSolverStandard IKSolver = iota
	IKSolverITaSC
)

// Pose is the per-object animated state of an armature.
type Pose struct {
	Channels []*PoseChannel
	Solver   IKSolver
}

// Channel returns the pose channel with the given name.
func (p *Pose) Channel(name string) (*PoseChannel, bool) {
	if p == nil {
		return nil, false
	}
	for _, pc := range p.Channels {
		if pc.Name == name {
			return pc, true
		}
	}
	return nil, false
}

// PoseChannel is the posed counterpart of a Bone.
type PoseChannel struct {
	Name        string
	Parent      *PoseChannel
	Bone        *Bone
	Constraints []*Constraint
	Properties  Properties

	// HandlePrev and HandleNext are the B-Bone handle channels, nil when unused.
	HandlePrev *PoseChannel
	HandleNext *PoseChannel

	// Custom is an optional object used as the channel's display shape.
	Custom *Object
}

// HasBBoneSegments reports whether the channel computes a B-Bone shape.
func (pc *PoseChannel) HasBBoneSegments() bool {
	return pc != nil && pc.Bone != nil && pc.Bone.Segments > 1
}

// Constraint returns the bone-level constraint with the given name.
func (pc *PoseChannel) Constraint(name string) (*Constraint, bool) {
	return findConstraint(pc.Constraints, name)
}

// BuildPose creates one pose channel per armature bone, keeping the bone
// hierarchy. Channels appear in the armature's bone order.
func BuildPose(arm *Armature) *Pose {
	pose := &Pose{}
	byBone := make(map[*Bone]*PoseChannel, len(arm.Bones))
	for _, b := range arm.Bones {
		pc := &PoseChannel{Name: b.Name, Bone: b}
		byBone[b] = pc
		pose.Channels = append(pose.Channels, pc)
	}
	for _, pc := range pose.Channels {
		if pc.Bone.Parent != nil {
			pc.Parent = byBone[pc.Bone.Parent]
		}
		if pc.HasBBoneSegments() && pc.Parent != nil {
			pc.HandlePrev = pc.Parent
		}
	}
	return pose
}
