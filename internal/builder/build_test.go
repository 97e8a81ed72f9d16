package builder

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/evalgraph/internal/depsgraph"
	"github.com/vk/evalgraph/internal/depsnode"
	"github.com/vk/evalgraph/internal/scene"
)

// newRig creates an armature object with bones given as name/parent pairs.
// An empty parent makes a root bone.
func newRig(name string, bones ...[2]string) *scene.Object {
	arm := scene.NewArmature(name + "Data")
	byName := make(map[string]*scene.Bone)
	for _, pair := range bones {
		byName[pair[0]] = arm.AddBone(pair[0], byName[pair[1]])
	}
	ob := scene.NewObject(name, scene.ObjectArmature)
	ob.Data = arm
	ob.Pose = scene.BuildPose(arm)
	return ob
}

func channel(t *testing.T, ob *scene.Object, name string) *scene.PoseChannel {
	t.Helper()
	pc, ok := ob.Pose.Channel(name)
	require.True(t, ok, "bone %s", name)
	return pc
}

func addIK(t *testing.T, ob *scene.Object, bone string, ik *scene.IKSettings) {
	t.Helper()
	pc := channel(t, ob, bone)
	pc.Constraints = append(pc.Constraints, &scene.Constraint{Name: "IK " + bone, Type: scene.ConstraintIK, IK: ik})
}

func build(t *testing.T, objects ...*scene.Object) (*depsgraph.Graph, *Result) {
	t.Helper()
	sc := scene.NewScene("Scene")
	sc.Master.Objects = objects
	g := depsgraph.New(depsgraph.Owner{Main: scene.NewMain(), Scene: sc}, depsgraph.WithStrictInvariants())
	res, err := Build(context.Background(), g, Options{})
	require.NoError(t, err)
	return g, res
}

func lookup(g *depsgraph.Graph, k key) depsnode.Node {
	return k.find(&Builder{graph: g})
}

// relation returns the relation from -> to with the given description, nil
// when there is none.
func relation(t *testing.T, g *depsgraph.Graph, from, to key, description string) *depsnode.Relation {
	t.Helper()
	src := lookup(g, from)
	dst := lookup(g, to)
	require.NotNil(t, src, "node %s", from)
	require.NotNil(t, dst, "node %s", to)
	return depsnode.FindRelation(exitOf(src), entryOf(dst), description)
}

func countRelations(g *depsgraph.Graph, descriptions ...string) int {
	n := 0
	for _, rel := range g.Relations() {
		for _, d := range descriptions {
			if rel.Description == d {
				n++
			}
		}
	}
	return n
}

func countOperations(g *depsgraph.Graph, opcode depsnode.OperationCode) int {
	n := 0
	for _, op := range g.Operations() {
		if op.Opcode == opcode {
			n++
		}
	}
	return n
}

var chainDescriptions = []string{"IK Chain Parent", "IK Chain Result", "IK Solver Result"}

func threeBoneRig() *scene.Object {
	return newRig("Rig", [2]string{"Root", ""}, [2]string{"Mid", "Root"}, [2]string{"Tip", "Mid"})
}

func TestBuild_NoScene(t *testing.T) {
	t.Parallel()
	g := depsgraph.New(depsgraph.Owner{})
	_, err := Build(context.Background(), g, Options{})
	assert.ErrorIs(t, err, ErrNoScene)
}

func TestBuild_IKChain(t *testing.T) {
	t.Parallel()
	rig := threeBoneRig()
	addIK(t, rig, "Tip", &scene.IKSettings{UseTip: true})

	g, res := build(t, rig)

	solver := poseKey(rig, depsnode.OpPoseIKSolver).named("Root")
	assert.Equal(t, 1, countOperations(g, depsnode.OpPoseIKSolver))
	require.NotNil(t, lookup(g, solver))

	for _, bone := range []string{"Root", "Mid"} {
		assert.NotNil(t, relation(t, g, boneKey(rig, bone, depsnode.OpBoneReady), solver, "IK Chain Parent"), bone)
		assert.NotNil(t, relation(t, g, solver, boneKey(rig, bone, depsnode.OpBoneDone), "IK Chain Result"), bone)
	}
	assert.NotNil(t, relation(t, g, solver, boneKey(rig, "Tip", depsnode.OpBoneDone), "IK Solver Result"))
	assert.Equal(t, 5, countRelations(g, chainDescriptions...))
	assert.NotNil(t, relation(t, g, boneKey(rig, "Tip", depsnode.OpBoneReady), solver, "IK Solver Owner"))

	cleanup := relation(t, g, solver, poseKey(rig, depsnode.OpPoseCleanup), "IK Solver -> Cleanup")
	require.NotNil(t, cleanup)
	assert.True(t, cleanup.Flags.Has(depsnode.RelGodmode))

	rootMap := res.RootMaps[rig]
	require.NotNil(t, rootMap)
	for _, bone := range []string{"Root", "Mid", "Tip"} {
		assert.Equal(t, []string{"Root"}, rootMap.Roots(bone), bone)
	}

	// Bones sharing a chain read their parent before the solver.
	assert.NotNil(t, relation(t, g, boneKey(rig, "Mid", depsnode.OpBoneReady), boneKey(rig, "Tip", depsnode.OpBonePoseParent), "Parent Bone -> Child Bone"))
	assert.Empty(t, res.Cyclic)
}

func TestBuild_IKChainVariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		ik        scene.IKSettings
		root      string
		relations int
	}{
		{name: "tip excluded", ik: scene.IKSettings{}, root: "Root", relations: 4},
		{name: "chain count one", ik: scene.IKSettings{UseTip: true, ChainCount: 1}, root: "Tip", relations: 1},
		{name: "chain count two", ik: scene.IKSettings{UseTip: true, ChainCount: 2}, root: "Mid", relations: 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rig := threeBoneRig()
			ik := tc.ik
			addIK(t, rig, "Tip", &ik)

			g, res := build(t, rig)

			assert.NotNil(t, lookup(g, poseKey(rig, depsnode.OpPoseIKSolver).named(tc.root)))
			assert.Equal(t, tc.relations, countRelations(g, chainDescriptions...))
			assert.Empty(t, res.Cyclic)
		})
	}
}

func TestBuild_IKChainWithoutRoot(t *testing.T) {
	t.Parallel()
	rig := newRig("Rig", [2]string{"Lonely", ""})
	addIK(t, rig, "Lonely", &scene.IKSettings{})

	g, _ := build(t, rig)

	assert.Zero(t, countOperations(g, depsnode.OpPoseIKSolver))
	assert.Zero(t, countRelations(g, chainDescriptions...))
}

// longRig creates a single chain of n bones, B000 being the root.
func longRig(n int) *scene.Object {
	bones := make([][2]string, n)
	for i := range bones {
		bones[i][0] = fmt.Sprintf("B%03d", i)
		if i > 0 {
			bones[i][1] = bones[i-1][0]
		}
	}
	return newRig("Rig", bones...)
}

func TestBuild_IKChainLengthCap(t *testing.T) {
	t.Parallel()

	t.Run("ik", func(t *testing.T) {
		t.Parallel()
		rig := longRig(300)
		addIK(t, rig, "B299", &scene.IKSettings{UseTip: true})

		g, res := build(t, rig)

		assert.Equal(t, 1, countOperations(g, depsnode.OpPoseIKSolver))
		assert.Equal(t, 2*maxChainLength-1, countRelations(g, chainDescriptions...))
		assert.Equal(t, maxChainLength, res.RootMaps[rig].Len())
		assert.Empty(t, res.RootMaps[rig].Roots("B044"))
		assert.Empty(t, res.Cyclic)
	})

	t.Run("spline ik", func(t *testing.T) {
		t.Parallel()
		rig := longRig(300)
		curve := scene.NewObject("Path", scene.ObjectCurve)
		curve.Data = scene.NewCurve("PathData")
		pc := channel(t, rig, "B299")
		pc.Constraints = append(pc.Constraints, &scene.Constraint{
			Name:     "Spline",
			Type:     scene.ConstraintSplineIK,
			SplineIK: &scene.SplineIKSettings{Curve: curve, ChainCount: 300},
		})

		g, res := build(t, rig)

		assert.Equal(t, 1, countOperations(g, depsnode.OpPoseSplineIKSolver))
		assert.Equal(t, 2*maxChainLength-1, countRelations(g, "Spline IK Result", "Spline IK Solver Update", "Spline IK Solver Result"))
		assert.Equal(t, maxChainLength, res.RootMaps[rig].Len())
		assert.Empty(t, res.RootMaps[rig].Roots("B044"))
		assert.Empty(t, res.Cyclic)
	})
}

func TestBuild_IKTargets(t *testing.T) {
	t.Parallel()
	rig := threeBoneRig()
	target := scene.NewObject("Target", scene.ObjectEmpty)
	addIK(t, rig, "Tip", &scene.IKSettings{UseTip: true, Target: target})
	rig.Pose.Solver = scene.IKSolverITaSC

	g, res := build(t, rig)

	initIK := poseKey(rig, depsnode.OpPoseInitIK)
	assert.NotNil(t, relation(t, g, compKey(target, depsnode.NodeTransform), initIK, "IK Tip"))
	cow := relation(t, g, compKey(target, depsnode.NodeCopyOnEval), initIK, "IK Target CoW -> Init IK Tree")
	require.NotNil(t, cow)
	assert.True(t, cow.Flags.Has(depsnode.RelCheckBeforeAdd))
	assert.NotNil(t, relation(t, g, boneKey(rig, "Tip", depsnode.OpBoneLocal), initIK, "IK Constraint -> Init IK Tree"))
	assert.Empty(t, res.Cyclic)
}

func TestBuild_OverlappingChains(t *testing.T) {
	t.Parallel()
	rig := newRig("Rig",
		[2]string{"Root", ""},
		[2]string{"Hips", "Root"},
		[2]string{"Spine", "Hips"},
		[2]string{"Chest", "Spine"},
		[2]string{"ArmL", "Chest"},
		[2]string{"ArmR", "Chest"},
	)
	addIK(t, rig, "ArmL", &scene.IKSettings{UseTip: true})
	addIK(t, rig, "ArmR", &scene.IKSettings{UseTip: true, ChainCount: 2})

	g, res := build(t, rig)

	assert.Equal(t, 2, countOperations(g, depsnode.OpPoseIKSolver))
	assert.Equal(t, 1, countRelations(g, "IK Chain Overlap"))
	assert.NotNil(t, relation(t, g,
		boneKey(rig, "Root", depsnode.OpBoneDone),
		poseKey(rig, depsnode.OpPoseIKSolver).named("Chest"),
		"IK Chain Overlap"))
	assert.Equal(t, []string{"Chest", "Root"}, res.RootMaps[rig].Roots("Chest"))
	assert.Empty(t, res.Cyclic)
}

func TestBuild_SplineIK(t *testing.T) {
	t.Parallel()
	rig := threeBoneRig()
	curve := scene.NewObject("Path", scene.ObjectCurve)
	curve.Data = scene.NewCurve("PathData")
	pc := channel(t, rig, "Tip")
	pc.Constraints = append(pc.Constraints, &scene.Constraint{
		Name:     "Spline",
		Type:     scene.ConstraintSplineIK,
		SplineIK: &scene.SplineIKSettings{Curve: curve, ChainCount: 2},
	})

	g, res := build(t, rig)

	solver := poseKey(rig, depsnode.OpPoseSplineIKSolver).named("Mid")
	require.NotNil(t, lookup(g, solver))
	assert.NotNil(t, relation(t, g, compKey(curve, depsnode.NodeGeometry), poseKey(rig, depsnode.OpPoseInitIK), "Curve.Path -> Spline IK"))
	assert.NotNil(t, relation(t, g, solver, boneKey(rig, "Tip", depsnode.OpBoneDone), "Spline IK Result"))
	assert.NotNil(t, relation(t, g, boneKey(rig, "Mid", depsnode.OpBoneReady), solver, "Spline IK Solver Update"))
	assert.Equal(t, 2, countRelations(g, "Spline IK Solver Update", "Spline IK Solver Result"))
	assert.Equal(t, []string{"Mid"}, res.RootMaps[rig].Roots("Tip"))
	assert.Empty(t, res.RootMaps[rig].Roots("Root"))
}

func TestBuild_BoneConstraintInChain(t *testing.T) {
	t.Parallel()
	rig := threeBoneRig()
	addIK(t, rig, "Tip", &scene.IKSettings{UseTip: true})
	other := scene.NewObject("Other", scene.ObjectEmpty)
	mid := channel(t, rig, "Mid")
	mid.Constraints = append(mid.Constraints,
		&scene.Constraint{Name: "Copy Root", Type: scene.ConstraintCopyRotation, Targets: []*scene.ConstraintTarget{{Object: rig, Subtarget: "Root"}}},
		&scene.Constraint{Name: "Track", Type: scene.ConstraintDampedTrack, Targets: []*scene.ConstraintTarget{{Object: other}}},
	)

	g, res := build(t, rig)

	stack := boneKey(rig, "Mid", depsnode.OpBoneConstraints)
	assert.NotNil(t, relation(t, g, boneKey(rig, "Root", depsnode.OpBoneReady), stack, "Copy Root"))
	assert.NotNil(t, relation(t, g, opKey(other, depsnode.NodeTransform, depsnode.OpTransformFinal), stack, "Track"))
	assert.NotNil(t, relation(t, g, stack, boneKey(rig, "Mid", depsnode.OpBoneReady), "Constraints -> Ready"))
	assert.Empty(t, res.Cyclic)
}

func TestBuild_BBoneSegments(t *testing.T) {
	t.Parallel()
	rig := newRig("Rig", [2]string{"Root", ""}, [2]string{"Bendy", "Root"})
	rig.Armature().Bones[1].Segments = 4
	rig.Pose = scene.BuildPose(rig.Armature())

	g, _ := build(t, rig)

	segments := boneKey(rig, "Bendy", depsnode.OpBoneSegments)
	assert.NotNil(t, relation(t, g, boneKey(rig, "Bendy", depsnode.OpBoneDone), segments, "Done -> B-Bone Segments"))
	assert.NotNil(t, relation(t, g, boneKey(rig, "Root", depsnode.OpBoneDone), segments, "Prev Handle -> B-Bone Segments"))
	link := relation(t, g, segments, poseKey(rig, depsnode.OpPoseDone), "PoseEval Result-Bone Link")
	require.NotNil(t, link)
	assert.True(t, link.Flags.Has(depsnode.RelGodmode))
}

func TestBuild_Parenting(t *testing.T) {
	t.Parallel()
	rig := newRig("Rig", [2]string{"Root", ""})
	parent := scene.NewObject("Parent", scene.ObjectEmpty)

	child := scene.NewObject("Child", scene.ObjectEmpty)
	child.Parent = parent

	boneChild := scene.NewObject("BoneChild", scene.ObjectEmpty)
	boneChild.Parent = rig
	boneChild.ParentType = scene.ParentBone
	boneChild.ParentBone = "Root"

	missing := scene.NewObject("Missing", scene.ObjectEmpty)
	missing.Parent = rig
	missing.ParentType = scene.ParentBone
	missing.ParentBone = "Nope"

	g, res := build(t, child, boneChild, missing)

	parentOp := func(ob *scene.Object) operationKey {
		return opKey(ob, depsnode.NodeTransform, depsnode.OpTransformParent)
	}
	assert.NotNil(t, relation(t, g, compKey(parent, depsnode.NodeTransform), parentOp(child), "Object Parent"))
	assert.NotNil(t, relation(t, g, boneKey(rig, "Root", depsnode.OpBoneDone), parentOp(boneChild), "Bone Parent"))
	assert.NotNil(t, relation(t, g, compKey(rig, depsnode.NodeTransform), parentOp(missing), "Object Parent"))
	// Parents reached only through children still get nodes.
	assert.NotNil(t, g.FindIDNode(parent))
	assert.Empty(t, res.Cyclic)
}

func TestBuild_DriversAndAnimation(t *testing.T) {
	t.Parallel()
	source := scene.NewObject("Source", scene.ObjectEmpty)
	rig := newRig("Rig", [2]string{"Root", ""})
	driven := scene.NewObject("Driven", scene.ObjectEmpty)
	driver := &scene.Driver{
		Path: "location",
		Variables: []*scene.DriverVariable{
			{Name: "x", Type: scene.VarSingleProp, Targets: []*scene.DriverTarget{{ID: source, Path: "location"}}},
			{Name: "bone", Type: scene.VarTransformChannel, Targets: []*scene.DriverTarget{{ID: rig, BoneName: "Root"}}},
		},
	}
	driven.Anim = &scene.AnimData{Drivers: []*scene.Driver{driver}}
	rig.Anim = &scene.AnimData{Action: scene.NewAction("Wave", `pose.bones["Root"].rotation_euler`, "location")}

	g, res := build(t, driven, rig)

	dk := driverKey(driven, driver)
	assert.NotNil(t, relation(t, g, dk, compKey(driven, depsnode.NodeTransform), "Driver -> Driven Property"))
	assert.NotNil(t, relation(t, g, compKey(source, depsnode.NodeTransform), dk, "RNA Target -> Driver"))
	assert.NotNil(t, relation(t, g, boneKey(rig, "Root", depsnode.OpBoneDone), dk, "Bone Target -> Driver"))
	assert.NotNil(t, g.FindIDNode(source))

	animation := compKey(rig, depsnode.NodeAnimation)
	assert.NotNil(t, relation(t, g, animation, poseKey(rig, depsnode.OpPoseInit), "Animation -> Prop"))
	assert.NotNil(t, relation(t, g, animation, compKey(rig, depsnode.NodeTransform), "Animation -> Prop"))
	assert.NotNil(t, relation(t, g, timeSourceKey{}, animation, "TimeSrc -> Animation"))
	assert.Empty(t, res.Cyclic)
}

func TestBuild_UnresolvablePathsAreSkipped(t *testing.T) {
	t.Parallel()
	ob := scene.NewObject("Cube", scene.ObjectEmpty)
	ob.Anim = &scene.AnimData{
		Action:  scene.NewAction("Broken", `pose.bones["Nope"].location`),
		Drivers: []*scene.Driver{{Path: `modifiers["Nope"].levels`}},
	}

	g, _ := build(t, ob)

	assert.Zero(t, countRelations(g, "Animation -> Prop", "Driver -> Driven Property"))
}

func TestBuild_CopyOnEval(t *testing.T) {
	t.Parallel()
	ob := scene.NewObject("Cube", scene.ObjectMesh)
	ob.Data = scene.NewMesh("CubeMesh")

	g, _ := build(t, ob)

	cow := compKey(ob, depsnode.NodeCopyOnEval)
	rel := relation(t, g, cow, compKey(ob, depsnode.NodeTransform), "Copy-on-Eval Relation")
	require.NotNil(t, rel)
	assert.True(t, rel.Flags.Has(depsnode.RelNoFlush|depsnode.RelGodmode))

	geom := relation(t, g, compKey(ob.Data, depsnode.NodeCopyOnEval), compKey(ob.Data, depsnode.NodeGeometry), "Copy-on-Eval Relation")
	require.NotNil(t, geom)
	assert.False(t, geom.Flags.Has(depsnode.RelNoFlush))

	assert.NotNil(t, relation(t, g, compKey(ob.Data, depsnode.NodeCopyOnEval), cow, "Eval Order"))

	// No relation may enter a copy-on-eval component from outside it.
	for _, r := range g.Relations() {
		assert.True(t, depsnode.CopyOnEvalOrderValid(r.From, r.To), r.String())
	}
	assert.NotNil(t, g.FindIDNode(ob).Mirror())
}

func TestBuild_Rebuild(t *testing.T) {
	t.Parallel()
	keep := scene.NewObject("Keep", scene.ObjectEmpty)
	drop := scene.NewObject("Drop", scene.ObjectEmpty)
	sc := scene.NewScene("Scene")
	sc.Master.Objects = []*scene.Object{keep, drop}
	g := depsgraph.New(depsgraph.Owner{Scene: sc})
	ctx := context.Background()

	first, err := Build(ctx, g, Options{})
	require.NoError(t, err)
	mirror := g.FindIDNode(keep).Mirror()

	again, err := Build(ctx, g, Options{})
	require.NoError(t, err)
	assert.Equal(t, first.Stats, again.Stats)
	assert.Same(t, mirror, g.FindIDNode(keep).Mirror())

	sc.Master.Objects = []*scene.Object{keep}
	last, err := Build(ctx, g, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, last.Removed)
	assert.Nil(t, g.FindIDNode(drop))
	assert.Less(t, last.Stats.Relations, first.Stats.Relations)
}

func TestBuild_PrunesPlaceholders(t *testing.T) {
	t.Parallel()
	ob := scene.NewObject("Cube", scene.ObjectEmpty)

	g, res := build(t, ob)

	assert.Positive(t, res.Pruned.RemovedRelations)
	exit := lookup(g, opKey(ob, depsnode.NodeParameters, depsnode.OpParametersExit))
	require.NotNil(t, exit)
	assert.Empty(t, exit.Inlinks())
	// Visibility is pinned and survives without consumers.
	vis := lookup(g, opKey(ob, depsnode.NodeVisibility, depsnode.OpVisibility))
	require.NotNil(t, vis)
	assert.NotEmpty(t, vis.Inlinks())
}
