package proppath

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vk/evalgraph/internal/scene"
)

// ErrNotFound is returned when a path step does not exist on the entity.
var ErrNotFound = errors.New("data path does not resolve")

// Pointer addresses a struct inside a data-block.
type Pointer struct {
	// Owner is the data-block the struct lives in.
	Owner scene.Entity
	Type  StructType
	// Data is the struct itself: the entity for StructID, *scene.PoseChannel,
	// *scene.Bone, *scene.Constraint, *scene.ConstraintTarget,
	// *scene.Modifier, *scene.KeyBlock, a layer or group name for the named
	// layer types and an element index for splines and lattice points.
	Data any
}

// IDPointer returns a pointer to the data-block itself.
func IDPointer(e scene.Entity) Pointer {
	return Pointer{Owner: e, Type: StructID, Data: e}
}

// IsNil reports whether the pointer has no owner.
func (p Pointer) IsNil() bool {
	return p.Owner == nil
}

// Property is the accessed member of the struct a Pointer addresses.
type Property struct {
	Identifier string
	// Custom marks user-defined properties accessed with ["name"].
	Custom bool
	// Index is the array element, -1 for the whole property.
	Index int
}

// Resolve walks path from owner. The last plain segment is always a
// property, even when it names a struct (`data`). Paths that end on a
// collection element (for example `pose.bones["Arm"]`) return a nil
// property.
func Resolve(owner scene.Entity, path string) (Pointer, *Property, error) {
	p, err := Parse(path)
	if err != nil {
		return Pointer{}, nil, err
	}

	ptr := IDPointer(owner)
	segs := p.Segments
	for i, seg := range segs {
		last := i == len(segs)-1
		if seg.IsCustom() {
			if !last {
				return Pointer{}, nil, fmt.Errorf("%w: custom property %q is not a struct", ErrNotFound, seg.Key)
			}
			return ptr, &Property{Identifier: seg.Key, Custom: true, Index: -1}, nil
		}

		if last && !seg.HasKey && !seg.HasIndex() {
			return ptr, &Property{Identifier: seg.Name, Index: -1}, nil
		}

		next, ok := step(ptr, seg)
		if ok {
			ptr = next
			continue
		}
		if last && !seg.HasKey {
			return ptr, &Property{Identifier: seg.Name, Index: seg.Index}, nil
		}
		return Pointer{}, nil, fmt.Errorf("%w: %q on %s (%s)", ErrNotFound, p.String(), owner.DataID().Key(), seg.Name)
	}
	return ptr, nil, nil
}

// step navigates one struct-valued segment.
func step(ptr Pointer, seg Segment) (Pointer, bool) {
	sub := func(t StructType, data any) (Pointer, bool) {
		return Pointer{Owner: ptr.Owner, Type: t, Data: data}, true
	}

	switch ptr.Type {
	case StructID:
		return stepID(ptr, seg)

	case StructPose:
		ob := ptr.Owner.(*scene.Object)
		if seg.Name == "bones" && seg.HasKey {
			if pc, ok := ob.Pose.Channel(seg.Key); ok {
				return sub(StructPoseBone, pc)
			}
		}

	case StructPoseBone:
		pc := ptr.Data.(*scene.PoseChannel)
		switch {
		case seg.Name == "constraints" && seg.HasKey:
			if con, ok := pc.Constraint(seg.Key); ok {
				return sub(StructConstraint, con)
			}
		case seg.Name == "bone" && !seg.HasKey && !seg.HasIndex():
			if pc.Bone != nil {
				return sub(StructBone, pc.Bone)
			}
		}

	case StructConstraint:
		con := ptr.Data.(*scene.Constraint)
		if seg.Name == "targets" && seg.HasIndex() && seg.Index < len(con.Targets) {
			return sub(StructConstraintTarget, con.Targets[seg.Index])
		}
	}
	return Pointer{}, false
}

func stepID(ptr Pointer, seg Segment) (Pointer, bool) {
	sub := func(t StructType, data any) (Pointer, bool) {
		return Pointer{Owner: ptr.Owner, Type: t, Data: data}, true
	}

	switch id := ptr.Owner.(type) {
	case *scene.Object:
		switch {
		case seg.Name == "pose" && id.Pose != nil && !seg.HasKey:
			return sub(StructPose, id.Pose)
		case seg.Name == "data" && id.Data != nil && !seg.HasKey:
			return IDPointer(id.Data), true
		case seg.Name == "constraints" && seg.HasKey:
			if con, ok := id.Constraint(seg.Key); ok {
				return sub(StructConstraint, con)
			}
		case seg.Name == "modifiers" && seg.HasKey:
			if md, ok := id.Modifier(seg.Key); ok {
				return sub(StructModifier, md)
			}
		case seg.Name == "vertex_groups" && seg.HasKey:
			if me, ok := id.Data.(*scene.Mesh); ok && slices.Contains(me.VertexGroups, seg.Key) {
				return sub(StructVertexGroup, seg.Key)
			}
		}

	case *scene.Armature:
		if seg.Name == "bones" && seg.HasKey {
			if b, ok := id.Bone(seg.Key); ok {
				return sub(StructBone, b)
			}
		}

	case *scene.Mesh:
		switch {
		case seg.Name == "uv_layers" && seg.HasKey && slices.Contains(id.UVLayers, seg.Key):
			return sub(StructUVLayer, seg.Key)
		case seg.Name == "vertex_colors" && seg.HasKey && slices.Contains(id.ColorLayers, seg.Key):
			return sub(StructColorLayer, seg.Key)
		case seg.Name == "shape_keys" && id.Key != nil:
			return IDPointer(id.Key), true
		}

	case *scene.Curve:
		switch {
		case seg.Name == "splines" && seg.HasIndex() && seg.Index < id.Splines:
			return sub(StructSpline, seg.Index)
		case seg.Name == "shape_keys" && id.Key != nil:
			return IDPointer(id.Key), true
		}

	case *scene.Lattice:
		switch {
		case seg.Name == "points" && seg.HasIndex() && seg.Index < id.Points:
			return sub(StructLatticePoint, seg.Index)
		case seg.Name == "shape_keys" && id.Key != nil:
			return IDPointer(id.Key), true
		}

	case *scene.ShapeKey:
		if seg.Name == "key_blocks" && seg.HasKey {
			if kb, ok := id.Block(seg.Key); ok {
				return sub(StructKeyBlock, kb)
			}
		}
	}
	return Pointer{}, false
}
