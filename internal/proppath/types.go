package proppath

// Segment is one component of a data path: `name`, `name[3]`, `name["key"]`
// or a bare `["key"]` custom property access.
type Segment struct {
	Name   string
	Key    string
	HasKey bool
	Index  int // -1 indicates no index is present.
}

// NewSegment creates a plain named segment.
func NewSegment(name string) Segment {
	return Segment{Name: name, Index: -1}
}

// NewIndexedSegment creates a segment subscripted by an integer.
func NewIndexedSegment(name string, index int) Segment {
	return Segment{Name: name, Index: index}
}

// NewKeyedSegment creates a segment subscripted by a quoted key. An empty
// name makes it a custom property access.
func NewKeyedSegment(name, key string) Segment {
	return Segment{Name: name, Key: key, HasKey: true, Index: -1}
}

// HasIndex reports whether the segment has an integer subscript.
func (s Segment) HasIndex() bool {
	return s.Index != -1
}

// IsCustom reports whether the segment addresses a user-defined property.
func (s Segment) IsCustom() bool {
	return s.Name == "" && s.HasKey
}

// Path is a parsed data path.
type Path struct {
	Segments []Segment
}

// StructType identifies what a Pointer points at.
type StructType int

const (
	StructUnknown StructType = iota
	// StructID is a whole data-block; Data is the entity itself.
	StructID
	StructPose
	StructPoseBone
	StructBone
	StructConstraint
	StructConstraintTarget
	StructModifier
	StructVertexGroup
	StructUVLayer
	StructColorLayer
	StructSpline
	StructLatticePoint
	StructKeyBlock
)

var structTypeNames = map[StructType]string{
	StructUnknown:          "Unknown",
	StructID:               "ID",
	StructPose:             "Pose",
	StructPoseBone:         "PoseBone",
	StructBone:             "Bone",
	StructConstraint:       "Constraint",
	StructConstraintTarget: "ConstraintTarget",
	StructModifier:         "Modifier",
	StructVertexGroup:      "VertexGroup",
	StructUVLayer:          "MeshUVLoopLayer",
	StructColorLayer:       "MeshLoopColorLayer",
	StructSpline:           "Spline",
	StructLatticePoint:     "LatticePoint",
	StructKeyBlock:         "ShapeKey",
}

func (t StructType) String() string {
	if name, ok := structTypeNames[t]; ok {
		return name
	}
	return structTypeNames[StructUnknown]
}
