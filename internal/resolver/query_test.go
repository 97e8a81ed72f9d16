package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evalgraph/internal/depsgraph"
	"github.com/vk/evalgraph/internal/depsnode"
	"github.com/vk/evalgraph/internal/proppath"
	"github.com/vk/evalgraph/internal/scene"
)

type fixture struct {
	rig    *scene.Object
	arm    *scene.Armature
	mesh   *scene.Object
	meshME *scene.Mesh
	key    *scene.ShapeKey
}

func newFixture() fixture {
	arm := scene.NewArmature("RigData")
	root := arm.AddBone("Root", nil)
	bent := arm.AddBone("Bent", root)
	bent.Segments = 4

	rig := scene.NewObject("Rig", scene.ObjectArmature)
	rig.Data = arm
	rig.Pose = scene.BuildPose(arm)
	rootPC, _ := rig.Pose.Channel("Root")
	rootPC.Properties = scene.Properties{"stretch": cty.NumberFloatVal(1)}
	rootPC.Constraints = []*scene.Constraint{{
		Name:    "Track",
		Type:    scene.ConstraintDampedTrack,
		Targets: []*scene.ConstraintTarget{{Subtarget: "Bent"}},
	}}
	rig.Constraints = []*scene.Constraint{{Name: "Follow", Type: scene.ConstraintCopyLocation}}
	rig.Properties = scene.Properties{"mood": cty.StringVal("calm")}

	key := scene.NewShapeKey("Key", "Basis", "Smile")
	me := scene.NewMesh("Face")
	me.Key = key
	me.UVLayers = []string{"UVMap"}
	me.VertexGroups = []string{"Jaw"}
	meshOb := scene.NewObject("Head", scene.ObjectMesh)
	meshOb.Data = me
	meshOb.Modifiers = []*scene.Modifier{{Name: "Subsurf", Type: scene.ModifierSubsurf}}

	return fixture{rig: rig, arm: arm, mesh: meshOb, meshME: me, key: key}
}

func identify(t *testing.T, q *Query, owner scene.Entity, path string, source Source) Identifier {
	t.Helper()
	ptr, prop, err := proppath.Resolve(owner, path)
	require.NoError(t, err, path)
	return q.Identify(ptr, prop, source)
}

func TestIdentify(t *testing.T) {
	f := newFixture()
	q := NewQuery(depsgraph.New(depsgraph.Owner{}))

	testCases := []struct {
		name          string
		owner         scene.Entity
		path          string
		source        Source
		wantEntity    scene.Entity
		wantComponent depsnode.NodeType
		wantCompName  string
		wantOpcode    depsnode.OperationCode
		wantOpName    string
	}{
		{"bone custom property", f.rig, `pose.bones["Root"]["stretch"]`, Entry, f.rig, depsnode.NodeBone, "Root", depsnode.OpIDProperty, "stretch"},
		{"object custom property", f.rig, `["mood"]`, Exit, f.rig, depsnode.NodeParameters, "", depsnode.OpIDProperty, "mood"},
		{"bbone property with segments", f.rig, `pose.bones["Bent"].bbone_curveinx`, Entry, f.rig, depsnode.NodeBone, "Bent", depsnode.OpBoneSegments, ""},
		{"bbone property without segments", f.rig, `pose.bones["Root"].bbone_curveinx`, Entry, f.rig, depsnode.NodeBone, "Root", depsnode.OpBoneDone, ""},
		{"final bone property read", f.rig, `pose.bones["Root"].head`, Exit, f.rig, depsnode.NodeBone, "Root", depsnode.OpBoneDone, ""},
		{"final bone property written", f.rig, `pose.bones["Root"].matrix`, Entry, f.rig, depsnode.NodeBone, "Root", depsnode.OpOperation, ""},
		{"other bone property", f.rig, `pose.bones["Root"].location`, Exit, f.rig, depsnode.NodeBone, "Root", depsnode.OpBoneLocal, ""},
		{"rest bone through object", f.rig, `pose.bones["Root"].bone.envelope`, Entry, f.arm, depsnode.NodeArmature, "", depsnode.OpArmatureEval, ""},
		{"rest bone through data", f.rig, `data.bones["Root"].envelope`, Entry, f.arm, depsnode.NodeArmature, "", depsnode.OpArmatureEval, ""},
		{"bone constraint", f.rig, `pose.bones["Root"].constraints["Track"].influence`, Entry, f.rig, depsnode.NodeBone, "Root", depsnode.OpBoneLocal, ""},
		{"bone constraint target", f.rig, `pose.bones["Root"].constraints["Track"].targets[0].subtarget`, Entry, f.rig, depsnode.NodeBone, "Root", depsnode.OpBoneLocal, ""},
		{"object constraint", f.rig, `constraints["Follow"].influence`, Entry, f.rig, depsnode.NodeTransform, "", depsnode.OpTransformLocal, ""},
		{"modifier entry", f.mesh, `modifiers["Subsurf"].levels`, Entry, f.mesh, depsnode.NodeGeometry, "", depsnode.OpOperation, ""},
		{"modifier exit", f.mesh, `modifiers["Subsurf"].levels`, Exit, f.mesh, depsnode.NodeParameters, "", depsnode.OpParametersEval, ""},
		{"vertex group", f.mesh, `vertex_groups["Jaw"].lock_weight`, Entry, f.mesh, depsnode.NodeGeometry, "", depsnode.OpOperation, ""},
		{"uv layer", f.mesh, `data.uv_layers["UVMap"].active`, Exit, f.meshME, depsnode.NodeParameters, "", depsnode.OpParametersEval, ""},
		{"mesh data", f.mesh, `data.auto_smooth`, Entry, f.meshME, depsnode.NodeGeometry, "", depsnode.OpOperation, ""},
		{"shape key block", f.mesh, `data.shape_keys.key_blocks["Smile"].value`, Entry, f.key, depsnode.NodeParameters, "", depsnode.OpParametersEval, "Smile"},
		{"object transform", f.mesh, `delta_rotation_euler`, Entry, f.mesh, depsnode.NodeTransform, "", depsnode.OpOperation, ""},
		{"object data", f.mesh, `data`, Entry, f.mesh, depsnode.NodeGeometry, "", depsnode.OpOperation, ""},
		{"object visibility", f.mesh, `hide_render`, Entry, f.mesh, depsnode.NodeObjectFromLayer, "", depsnode.OpOperation, ""},
		{"object dimensions", f.mesh, `dimensions`, Exit, f.mesh, depsnode.NodeParameters, "", depsnode.OpDimensions, ""},
		{"catch-all", f.mesh, `pass_index`, Entry, f.mesh, depsnode.NodeParameters, "", depsnode.OpParametersEval, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id := identify(t, q, tc.owner, tc.path, tc.source)
			require.True(t, id.Valid(), id.String())
			assert.Same(t, tc.wantEntity, id.Entity)
			assert.Equal(t, tc.wantComponent, id.Component)
			assert.Equal(t, tc.wantCompName, id.ComponentName)
			assert.Equal(t, tc.wantOpcode, id.Opcode)
			assert.Equal(t, tc.wantOpName, id.OpName)
		})
	}
}

func TestIdentify_Invalid(t *testing.T) {
	q := NewQuery(depsgraph.New(depsgraph.Owner{}))

	id := q.Identify(proppath.Pointer{}, &proppath.Property{Identifier: "location", Index: -1}, Entry)
	assert.False(t, id.Valid(), "no entity")
	assert.Equal(t, "<invalid>", id.String())

	ob := scene.NewObject("Empty", scene.ObjectEmpty)
	id = q.Identify(proppath.IDPointer(ob), nil, Entry)
	assert.False(t, id.Valid(), "entity without property has no component")
}

func TestFindNode(t *testing.T) {
	f := newFixture()
	g := depsgraph.New(depsgraph.Owner{})
	q := NewQuery(g)

	idNode := g.AddIDNode(f.rig)
	bone, err := idNode.AddComponent(depsnode.NodeBone, "Root")
	require.NoError(t, err)
	local := bone.AddOperation(nil, depsnode.OpBoneLocal, "", -1)

	ptr, prop, err := proppath.Resolve(f.rig, `pose.bones["Root"].location`)
	require.NoError(t, err)
	assert.Same(t, local, q.FindNode(ptr, prop, Entry))

	ptr, prop, err = proppath.Resolve(f.rig, `pose.bones["Root"].head`)
	require.NoError(t, err)
	assert.Same(t, bone, q.FindNode(ptr, prop, Entry), "component-level identifier returns the component")
	assert.Nil(t, q.FindNode(ptr, prop, Exit), "BONE_DONE was never created")

	ptr, prop, err = proppath.Resolve(f.mesh, `location`)
	require.NoError(t, err)
	assert.Nil(t, q.FindNode(ptr, prop, Entry), "no ID node for the mesh object")
}
