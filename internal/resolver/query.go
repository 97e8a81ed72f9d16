package resolver

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vk/evalgraph/internal/depsgraph"
	"github.com/vk/evalgraph/internal/depsnode"
	"github.com/vk/evalgraph/internal/proppath"
	"github.com/vk/evalgraph/internal/scene"
)

// DefaultTableCacheSize bounds the number of entities whose constraint
// tables a Query keeps.
const DefaultTableCacheSize = 256

// transformFragments route object properties to the transform component.
var transformFragments = []string{
	"location",
	"matrix_basis",
	"matrix_channel",
	"matrix_inverse",
	"matrix_local",
	"matrix_parent_inverse",
	"matrix_world",
	"rotation_axis_angle",
	"rotation_euler",
	"rotation_mode",
	"rotation_quaternion",
	"scale",
	"delta_location",
	"delta_rotation_euler",
	"delta_rotation_quaternion",
	"delta_scale",
}

// constraintTable maps the constraints of one object to the pose channel
// owning them (nil for object-level constraints) and targets to their
// constraint.
type constraintTable struct {
	bones   map[*scene.Constraint]*scene.PoseChannel
	targets map[*scene.ConstraintTarget]*scene.Constraint
}

// Query resolves property accesses against one graph.
type Query struct {
	graph  *depsgraph.Graph
	tables *lru.Cache[*scene.Object, *constraintTable]
}

// NewQuery creates a query for one build pass over g.
func NewQuery(g *depsgraph.Graph) *Query {
	tables, _ := lru.New[*scene.Object, *constraintTable](DefaultTableCacheSize)
	return &Query{graph: g, tables: tables}
}

// FindNode returns the component or operation node the access binds to, or
// nil when the identifier is invalid or the node does not exist.
func (q *Query) FindNode(ptr proppath.Pointer, prop *proppath.Property, source Source) depsnode.Node {
	id := q.Identify(ptr, prop, source)
	if !id.Valid() {
		return nil
	}
	return q.Lookup(id)
}

// Lookup finds the node an identifier addresses.
func (q *Query) Lookup(id Identifier) depsnode.Node {
	idNode := q.graph.FindIDNode(id.Entity)
	if idNode == nil {
		return nil
	}
	comp, ok := idNode.FindComponent(id.Component, id.ComponentName)
	if !ok {
		return nil
	}
	if !id.IsOperation() {
		return comp
	}
	op, ok := comp.FindOperation(id.Opcode, id.OpName, id.Tag)
	if !ok {
		return nil
	}
	return op
}

// Identify computes the identifier of an access.
func (q *Query) Identify(ptr proppath.Pointer, prop *proppath.Property, source Source) Identifier {
	if ptr.IsNil() {
		return Identifier{Tag: -1}
	}
	id := newIdentifier(ptr.Owner)
	name := ""
	if prop != nil {
		name = prop.Identifier
	}

	// User-defined properties.
	if prop != nil && prop.Custom {
		id.Component = depsnode.NodeParameters
		id.Opcode = depsnode.OpIDProperty
		id.OpName = name
		if pc, ok := ptr.Data.(*scene.PoseChannel); ok && ptr.Type == proppath.StructPoseBone {
			id.Component = depsnode.NodeBone
			id.ComponentName = pc.Name
		}
		return id
	}

	switch ptr.Type {
	case proppath.StructPoseBone:
		pc := ptr.Data.(*scene.PoseChannel)
		id.Component = depsnode.NodeBone
		id.ComponentName = pc.Name
		switch {
		case prop == nil:
		case strings.HasPrefix(name, "bbone_"):
			if pc.HasBBoneSegments() {
				id.Opcode = depsnode.OpBoneSegments
			} else {
				id.Opcode = depsnode.OpBoneDone
			}
		case isFinalBoneProperty(name):
			if source == Exit {
				id.Opcode = depsnode.OpBoneDone
			}
		default:
			id.Opcode = depsnode.OpBoneLocal
		}
		return id

	case proppath.StructBone:
		if ob, ok := ptr.Owner.(*scene.Object); ok && ob.Data != nil {
			id.Entity = ob.Data
		}
		id.Component = depsnode.NodeArmature
		id.Opcode = depsnode.OpArmatureEval
		return id

	case proppath.StructConstraint:
		return q.constraintIdentifier(id, ptr.Owner, ptr.Data.(*scene.Constraint))

	case proppath.StructConstraintTarget:
		ob, ok := ptr.Owner.(*scene.Object)
		if !ok {
			break
		}
		if con := q.table(ob).targets[ptr.Data.(*scene.ConstraintTarget)]; con != nil {
			return q.constraintIdentifier(id, ob, con)
		}

	case proppath.StructModifier, proppath.StructSpline, proppath.StructUVLayer,
		proppath.StructColorLayer, proppath.StructVertexGroup, proppath.StructLatticePoint:
		return geometryIdentifier(id, source)

	case proppath.StructKeyBlock:
		id.Component = depsnode.NodeParameters
		id.Opcode = depsnode.OpParametersEval
		id.OpName = ptr.Data.(*scene.KeyBlock).Name
		return id

	case proppath.StructID:
		switch ptr.Owner.(type) {
		case *scene.Mesh, *scene.Curve, *scene.Lattice:
			return geometryIdentifier(id, source)
		case *scene.Object:
			if prop != nil {
				if resolved, ok := objectPropertyIdentifier(id, name); ok {
					return resolved
				}
			}
		}
	}

	// Everything else with a name is a parameter of the entity.
	if prop != nil {
		id.Component = depsnode.NodeParameters
		id.Opcode = depsnode.OpParametersEval
		return id
	}
	return id
}

func (q *Query) constraintIdentifier(id Identifier, owner scene.Entity, con *scene.Constraint) Identifier {
	ob, ok := owner.(*scene.Object)
	if !ok {
		return id
	}
	if pc := q.table(ob).bones[con]; pc != nil {
		id.Component = depsnode.NodeBone
		id.ComponentName = pc.Name
		id.Opcode = depsnode.OpBoneLocal
		return id
	}
	id.Component = depsnode.NodeTransform
	id.Opcode = depsnode.OpTransformLocal
	return id
}

// table returns the constraint table of ob, building it on first use.
func (q *Query) table(ob *scene.Object) *constraintTable {
	if t, ok := q.tables.Get(ob); ok {
		return t
	}
	t := &constraintTable{
		bones:   make(map[*scene.Constraint]*scene.PoseChannel),
		targets: make(map[*scene.ConstraintTarget]*scene.Constraint),
	}
	add := func(stack []*scene.Constraint, pc *scene.PoseChannel) {
		for _, con := range stack {
			t.bones[con] = pc
			for _, tgt := range con.Targets {
				t.targets[tgt] = con
			}
		}
	}
	add(ob.Constraints, nil)
	if ob.Pose != nil {
		for _, pc := range ob.Pose.Channels {
			add(pc.Constraints, pc)
		}
	}
	q.tables.Add(ob, t)
	return t
}

func geometryIdentifier(id Identifier, source Source) Identifier {
	if source == Entry {
		id.Component = depsnode.NodeGeometry
		return id
	}
	id.Component = depsnode.NodeParameters
	id.Opcode = depsnode.OpParametersEval
	return id
}

func objectPropertyIdentifier(id Identifier, name string) (Identifier, bool) {
	for _, frag := range transformFragments {
		if strings.Contains(name, frag) {
			id.Component = depsnode.NodeTransform
			return id, true
		}
	}
	switch {
	case strings.Contains(name, "data"):
		id.Component = depsnode.NodeGeometry
	case name == "hide_viewport" || name == "hide_render":
		id.Component = depsnode.NodeObjectFromLayer
	case name == "dimensions":
		id.Component = depsnode.NodeParameters
		id.Opcode = depsnode.OpDimensions
	default:
		return id, false
	}
	return id, true
}

func isFinalBoneProperty(name string) bool {
	return name == "head" || name == "tail" || name == "length" || strings.HasPrefix(name, "matrix")
}
