// Package schema holds the HCL block structures of scene files, as decoded by
// gohcl. References between data-blocks are plain names here; the hcl
// package resolves them once every file has been read.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// File is the top-level structure of a scene file. Every block kind may
// appear in any file.
type File struct {
	Scenes      []*Scene            `hcl:"scene,block"`
	Collections []*Collection       `hcl:"collection,block"`
	Objects     []*Object           `hcl:"object,block"`
	Armatures   []*Armature         `hcl:"armature,block"`
	Meshes      []*Mesh             `hcl:"mesh,block"`
	Curves      []*Curve            `hcl:"curve,block"`
	Lattices    []*Lattice          `hcl:"lattice,block"`
	Cameras     []*Camera           `hcl:"camera,block"`
	ShapeKeys   []*ShapeKey         `hcl:"shape_key,block"`
	Actions     []*Action           `hcl:"action,block"`
	Particles   []*ParticleSettings `hcl:"particle_settings,block"`
	Body        hcl.Body            `hcl:",remain"`
}

// Properties is a block of user-defined properties. Its attributes are
// evaluated without variables into cty values.
type Properties struct {
	Body hcl.Body `hcl:",remain"`
}

// --- Containers ---

type Scene struct {
	Name        string      `hcl:"name,label"`
	Objects     []string    `hcl:"objects,optional"`
	Collections []string    `hcl:"collections,optional"`
	Camera      string      `hcl:"camera,optional"`
	Properties  *Properties `hcl:"properties,block"`
	Animation   *Animation  `hcl:"animation,block"`
}

type Collection struct {
	Name     string   `hcl:"name,label"`
	Objects  []string `hcl:"objects,optional"`
	Children []string `hcl:"children,optional"`
}

// --- Objects ---

// Object represents an `object` block. Data names a data-block whose type
// follows from Kind.
type Object struct {
	Name         string        `hcl:"name,label"`
	Kind         string        `hcl:"kind,optional"`
	Data         string        `hcl:"data,optional"`
	Parent       string        `hcl:"parent,optional"`
	ParentType   string        `hcl:"parent_type,optional"`
	ParentBone   string        `hcl:"parent_bone,optional"`
	HideViewport bool          `hcl:"hide_viewport,optional"`
	IKSolver     string        `hcl:"ik_solver,optional"`
	Constraints  []*Constraint `hcl:"constraint,block"`
	Modifiers    []*Modifier   `hcl:"modifier,block"`
	PoseBones    []*PoseBone   `hcl:"pose_bone,block"`
	Properties   *Properties   `hcl:"properties,block"`
	Animation    *Animation    `hcl:"animation,block"`
}

// PoseBone carries the per-object settings of one bone of an armature
// object.
type PoseBone struct {
	Name        string        `hcl:"name,label"`
	CustomShape string        `hcl:"custom_shape,optional"`
	HandlePrev  string        `hcl:"bbone_prev,optional"`
	HandleNext  string        `hcl:"bbone_next,optional"`
	Constraints []*Constraint `hcl:"constraint,block"`
	Properties  *Properties   `hcl:"properties,block"`
}

// Constraint represents a `constraint` block of an object or a pose bone.
// Chain settings only apply to ik and spline_ik constraints; the first
// target block is the IK target.
type Constraint struct {
	Name          string    `hcl:"name,label"`
	Type          string    `hcl:"type"`
	Disabled      bool      `hcl:"disabled,optional"`
	Targets       []*Target `hcl:"target,block"`
	UseBBoneShape bool      `hcl:"use_bbone_shape,optional"`
	ChainCount    int       `hcl:"chain_count,optional"`
	UseTip        *bool     `hcl:"use_tip,optional"`
	PoleTarget    string    `hcl:"pole_target,optional"`
	PoleSubtarget string    `hcl:"pole_subtarget,optional"`
	Curve         string    `hcl:"curve,optional"`
}

type Target struct {
	Object    string `hcl:"object"`
	Subtarget string `hcl:"subtarget,optional"`
}

type Modifier struct {
	Name       string      `hcl:"name,label"`
	Type       string      `hcl:"type"`
	Object     string      `hcl:"object,optional"`
	Properties *Properties `hcl:"properties,block"`
}

// --- Object data ---

type Armature struct {
	Name       string      `hcl:"name,label"`
	Bones      []*Bone     `hcl:"bone,block"`
	Properties *Properties `hcl:"properties,block"`
	Animation  *Animation  `hcl:"animation,block"`
}

// Bone is a rest bone. Parents must be declared before their children.
type Bone struct {
	Name             string `hcl:"name,label"`
	Parent           string `hcl:"parent,optional"`
	Segments         int    `hcl:"segments,optional"`
	AddParentEndRoll bool   `hcl:"add_parent_end_roll,optional"`
}

type Mesh struct {
	Name         string      `hcl:"name,label"`
	VertexGroups []string    `hcl:"vertex_groups,optional"`
	UVLayers     []string    `hcl:"uv_layers,optional"`
	ColorLayers  []string    `hcl:"color_layers,optional"`
	ShapeKey     string      `hcl:"shape_key,optional"`
	Properties   *Properties `hcl:"properties,block"`
	Animation    *Animation  `hcl:"animation,block"`
}

type Curve struct {
	Name       string      `hcl:"name,label"`
	Path       *bool       `hcl:"path,optional"`
	Splines    int         `hcl:"splines,optional"`
	Taper      string      `hcl:"taper,optional"`
	Bevel      string      `hcl:"bevel,optional"`
	ShapeKey   string      `hcl:"shape_key,optional"`
	Properties *Properties `hcl:"properties,block"`
	Animation  *Animation  `hcl:"animation,block"`
}

type Lattice struct {
	Name       string      `hcl:"name,label"`
	Points     int         `hcl:"points,optional"`
	ShapeKey   string      `hcl:"shape_key,optional"`
	Properties *Properties `hcl:"properties,block"`
	Animation  *Animation  `hcl:"animation,block"`
}

type Camera struct {
	Name       string      `hcl:"name,label"`
	DOFObject  string      `hcl:"dof_object,optional"`
	Properties *Properties `hcl:"properties,block"`
	Animation  *Animation  `hcl:"animation,block"`
}

type ShapeKey struct {
	Name      string     `hcl:"name,label"`
	Blocks    []string   `hcl:"blocks,optional"`
	Animation *Animation `hcl:"animation,block"`
}

type ParticleSettings struct {
	Name string `hcl:"name,label"`
}

// --- Animation ---

// Action is a reusable set of animation curves.
type Action struct {
	Name   string    `hcl:"name,label"`
	Curves []*FCurve `hcl:"fcurve,block"`
}

// FCurve is one animation curve of an action.
type FCurve struct {
	Path  string `hcl:"path,label"`
	Index int    `hcl:"index,optional"`
}

// Animation represents the `animation` block attached to a data-block.
type Animation struct {
	Action  string    `hcl:"action,optional"`
	Drivers []*Driver `hcl:"driver,block"`
}

type Driver struct {
	Path       string      `hcl:"path,label"`
	Index      int         `hcl:"index,optional"`
	Type       string      `hcl:"type,optional"`
	Expression string      `hcl:"expression,optional"`
	Variables  []*Variable `hcl:"variable,block"`
}

type Variable struct {
	Name    string          `hcl:"name,label"`
	Type    string          `hcl:"type,optional"`
	Targets []*DriverTarget `hcl:"target,block"`
}

// DriverTarget addresses the data-block a variable reads by its
// "<TYPE>:<name>" key, e.g. "OB:Cube".
type DriverTarget struct {
	ID   string `hcl:"id"`
	Path string `hcl:"path,optional"`
	Bone string `hcl:"bone,optional"`
}
