package scene

// ObjectKind is the type of data an object instances.
type ObjectKind int

const (
	ObjectEmpty ObjectKind = iota
	ObjectMesh
	ObjectCurve
	ObjectLattice
	ObjectArmature
	ObjectCamera
)

var objectKindNames = map[ObjectKind]string{
	ObjectEmpty:    "empty",
	ObjectMesh:     "mesh",
	ObjectCurve:    "curve",
	ObjectLattice:  "lattice",
	ObjectArmature: "armature",
	ObjectCamera:   "camera",
}

func (k ObjectKind) String() string { return objectKindNames[k] }

// ParseObjectKind maps a lower-case kind name to its value.
func ParseObjectKind(s string) (ObjectKind, bool) {
	for k, name := range objectKindNames {
		if name == s {
			return k, true
		}
	}
	return ObjectEmpty, false
}

// HasGeometry reports whether objects of this kind produce evaluated geometry.
func (k ObjectKind) HasGeometry() bool {
	switch k {
	case ObjectMesh, ObjectCurve, ObjectLattice:
		return true
	}
	return false
}

// ParentType selects how an object inherits its parent's transform.
type ParentType int

const (
	ParentObject ParentType = iota
	ParentBone
	ParentVertex
	ParentArmatureDeform
)

var parentTypeNames = map[ParentType]string{
	ParentObject:         "object",
	ParentBone:           "bone",
	ParentVertex:         "vertex",
	ParentArmatureDeform: "armature",
}

func (p ParentType) String() string { return parentTypeNames[p] }

// ParseParentType maps a lower-case parent type name to its value.
func ParseParentType(s string) (ParentType, bool) {
	for p, name := range parentTypeNames {
		if name == s {
			return p, true
		}
	}
	return ParentObject, false
}

// Object places data in the scene.
type Object struct {
	ID

	Kind ObjectKind
	// Data is the instanced data-block (*Mesh, *Armature, *Curve, ...). It is
	// nil for empties.
	Data Entity

	Parent     *Object
	ParentType ParentType
	// ParentBone names the bone of an armature parent when ParentType is ParentBone.
	ParentBone string

	// Pose is only set for armature objects.
	Pose *Pose

	Constraints []*Constraint
	Modifiers   []*Modifier

	HideViewport bool
}

// NewObject creates an object of the given kind.
func NewObject(name string, kind ObjectKind) *Object {
	return &Object{ID: ID{Name: name, Type: IDObject}, Kind: kind}
}

// CopyForEval implements Entity.
func (o *Object) CopyForEval() Entity {
	c := *o
	c.ID = copyID(o.ID)
	return &c
}

// Armature returns the object's armature data, if any.
func (o *Object) Armature() *Armature {
	if o == nil || o.Kind != ObjectArmature {
		return nil
	}
	arm, _ := o.Data.(*Armature)
	return arm
}

// Modifier returns the modifier with the given name.
func (o *Object) Modifier(name string) (*Modifier, bool) {
	for _, md := range o.Modifiers {
		if md.Name == name {
			return md, true
		}
	}
	return nil, false
}

// Constraint returns the object-level constraint with the given name.
func (o *Object) Constraint(name string) (*Constraint, bool) {
	return findConstraint(o.Constraints, name)
}

// ModifierType is the kind of a geometry modifier.
type ModifierType int

const (
	ModifierSubsurf ModifierType = iota
	ModifierArmature
	ModifierLattice
	ModifierHook
	ModifierDisplace
	ModifierNodes
)

var modifierTypeNames = map[ModifierType]string{
	ModifierSubsurf:  "subsurf",
	ModifierArmature: "armature",
	ModifierLattice:  "lattice",
	ModifierHook:     "hook",
	ModifierDisplace: "displace",
	ModifierNodes:    "nodes",
}

func (t ModifierType) String() string { return modifierTypeNames[t] }

// ParseModifierType maps a lower-case modifier type name to its value.
func ParseModifierType(s string) (ModifierType, bool) {
	for t, name := range modifierTypeNames {
		if name == s {
			return t, true
		}
	}
	return ModifierSubsurf, false
}

// Modifier is one entry of an object's geometry modifier stack.
type Modifier struct {
	Name string
	Type ModifierType
	// Object is the optional object the modifier reads from.
	Object *Object
	// Properties are inputs of node-based modifiers.
	Properties Properties
}
