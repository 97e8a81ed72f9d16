package builder

import (
	"github.com/vk/evalgraph/internal/depsnode"
	"github.com/vk/evalgraph/internal/proppath"
	"github.com/vk/evalgraph/internal/scene"
)

// maxChainLength bounds the walk up an IK chain.
const maxChainLength = 255

// ikRoot returns the bone an IK chain ends at, or nil when the chain is
// empty (tip excluded on a parentless bone).
func ikRoot(pc *scene.PoseChannel, ik *scene.IKSettings) *scene.PoseChannel {
	if !ik.UseTip {
		pc = pc.Parent
	}
	var root *scene.PoseChannel
	for n := 0; pc != nil; pc = pc.Parent {
		root = pc
		n++
		if n == ik.ChainCount {
			break
		}
	}
	return root
}

// splineIKRoot walks ChainCount-1 parents up from pc.
func splineIKRoot(pc *scene.PoseChannel, sik *scene.SplineIKSettings) *scene.PoseChannel {
	root := pc
	for n := 1; n < sik.ChainCount && root.Parent != nil; n++ {
		root = root.Parent
	}
	return root
}

// boneTargetOpcode picks the operation of a bone target. Within one rig a
// bone that shares a chain with the reader is read before its solver ran,
// everything else reads the final bone.
func boneTargetOpcode(target *scene.Object, subtarget string, owner *scene.Object, bone string, rootMap *RootChainMap) depsnode.OperationCode {
	if target == owner && rootMap != nil && rootMap.HasCommonRoot(bone, subtarget) {
		return depsnode.OpBoneReady
	}
	return depsnode.OpBoneDone
}

func (b *Builder) linkRig(ob *scene.Object) {
	arm := ob.Armature()
	if arm == nil || ob.Pose == nil {
		return
	}
	b.linkID(arm)

	rootMap := NewRootChainMap()
	b.rootMaps[ob] = rootMap

	poseInit := poseKey(ob, depsnode.OpPoseInit)
	initIK := poseKey(ob, depsnode.OpPoseInitIK)
	b.addRelation(poseInit, initIK, "Pose Init -> Pose Init IK", 0)
	b.addRelation(initIK, poseKey(ob, depsnode.OpPoseDone), "Pose Init IK -> Pose Done", 0)
	b.addRelation(opKey(arm, depsnode.NodeArmature, depsnode.OpArmatureEval), poseInit, "Data dependency", 0)
	b.addRelation(poseInit, poseKey(ob, depsnode.OpPoseCleanup), "Init -> Cleanup", 0)

	// Chains first, so that the per-bone pass sees the complete root map.
	needsLocal := false
	for _, pc := range ob.Pose.Channels {
		for _, con := range pc.Constraints {
			if con.Disabled {
				continue
			}
			switch {
			case con.Type == scene.ConstraintIK && con.IK != nil:
				b.linkIKChain(ob, pc, con, rootMap)
				needsLocal = true
			case con.Type == scene.ConstraintSplineIK && con.SplineIK != nil:
				b.linkSplineIKChain(ob, pc, con, rootMap)
				needsLocal = true
			case con.Type.ReadsWorldMatrix():
				needsLocal = true
			}
		}
	}
	if needsLocal {
		b.addRelation(opKey(ob, depsnode.NodeTransform, depsnode.OpTransformLocal), poseInit, "Local Transform -> Pose", 0)
	}

	for _, pc := range ob.Pose.Channels {
		b.linkBone(ob, pc, rootMap)
	}
	b.logger.Debug("Linked rig.", "object", ob.Name, "root_map", rootMap.String())
}

func (b *Builder) linkIKChain(ob *scene.Object, pc *scene.PoseChannel, con *scene.Constraint, rootMap *RootChainMap) {
	ik := con.IK
	root := ikRoot(pc, ik)
	if root == nil {
		b.logger.Warn("IK chain has no root bone, skipping.", "object", ob.Name, "bone", pc.Name, "constraint", con.Name)
		return
	}

	initIK := poseKey(ob, depsnode.OpPoseInitIK)
	solver := poseKey(ob, depsnode.OpPoseIKSolver).named(root.Name)

	itasc := ob.Pose.Solver == scene.IKSolverITaSC
	if itasc || constraintAnimated(ob, con) {
		b.addRelation(boneKey(ob, pc.Name, depsnode.OpBoneLocal), initIK, "IK Constraint -> Init IK Tree", 0)
	}
	b.addRelation(initIK, solver, "Init IK -> IK Solver", 0)
	b.addRelation(solver, poseKey(ob, depsnode.OpPoseCleanup), "IK Solver -> Cleanup", depsnode.RelGodmode)

	// iTaSC reads its targets while building the tree.
	var dependent key = solver
	if itasc {
		dependent = initIK
	}
	b.linkIKTarget(ob, pc, con, ik.Target, ik.Subtarget, dependent, rootMap)
	if ik.Target == ob && ik.Subtarget != "" {
		rootMap.AddBone(ik.Subtarget, root.Name)
	}
	b.linkIKTarget(ob, pc, con, ik.PoleTarget, ik.PoleSubtarget, dependent, rootMap)

	chain := pc
	if !ik.UseTip {
		chain = pc.Parent
	}
	rootMap.AddBone(chain.Name, root.Name)
	b.addRelation(boneKey(ob, chain.Name, depsnode.OpBoneReady), solver, "IK Solver Owner", 0)

	for n := 0; chain != nil; chain = chain.Parent {
		if chain != pc {
			b.addRelation(boneKey(ob, chain.Name, depsnode.OpBoneReady), solver, "IK Chain Parent", 0)
			b.addRelation(solver, boneKey(ob, chain.Name, depsnode.OpBoneDone), "IK Chain Result", 0)
		} else {
			b.addRelation(solver, boneKey(ob, chain.Name, depsnode.OpBoneDone), "IK Solver Result", 0)
		}
		rootMap.AddBone(chain.Name, root.Name)

		n++
		if n == ik.ChainCount || n >= maxChainLength {
			break
		}
	}
	b.addRelation(solver, poseKey(ob, depsnode.OpPoseDone), "PoseEval Result-Bone Link", 0)

	b.linkInterChains(ob, solver, root, rootMap)
}

func (b *Builder) linkIKTarget(ob *scene.Object, pc *scene.PoseChannel, con *scene.Constraint, target *scene.Object, subtarget string, dependent key, rootMap *RootChainMap) {
	if target == nil {
		return
	}
	if target != ob {
		b.addRelation(compKey(target, depsnode.NodeTransform), dependent, con.Name, 0)
		b.addRelation(compKey(target, depsnode.NodeCopyOnEval), poseKey(ob, depsnode.OpPoseInitIK), "IK Target CoW -> Init IK Tree", depsnode.RelCheckBeforeAdd)
	}
	switch {
	case subtarget == "":
	case target.Kind == scene.ObjectArmature:
		opcode := boneTargetOpcode(target, subtarget, ob, pc.Name, rootMap)
		b.addRelation(boneKey(target, subtarget, opcode), dependent, con.Name, 0)
	case target.Kind == scene.ObjectMesh || target.Kind == scene.ObjectLattice:
		// Vertex group target.
		b.addRelation(compKey(target, depsnode.NodeGeometry), dependent, con.Name, 0)
	}
}

func (b *Builder) linkSplineIKChain(ob *scene.Object, pc *scene.PoseChannel, con *scene.Constraint, rootMap *RootChainMap) {
	sik := con.SplineIK
	root := splineIKRoot(pc, sik)

	initIK := poseKey(ob, depsnode.OpPoseInitIK)
	solver := poseKey(ob, depsnode.OpPoseSplineIKSolver).named(root.Name)

	b.addRelation(initIK, solver, "Init IK -> Spline IK Solver", 0)
	b.addRelation(solver, poseKey(ob, depsnode.OpPoseCleanup), "Spline IK Solver -> Cleanup", depsnode.RelGodmode)
	b.addRelation(boneKey(ob, pc.Name, depsnode.OpBoneReady), solver, "Spline IK Solver Owner", depsnode.RelGodmode)

	if curve := sik.Curve; curve != nil {
		b.addRelation(compKey(curve, depsnode.NodeGeometry), initIK, "Curve.Path -> Spline IK", 0)
		b.addRelation(compKey(curve, depsnode.NodeTransform), initIK, "Curve.Transform -> Spline IK", 0)
	}

	b.addRelation(solver, boneKey(ob, pc.Name, depsnode.OpBoneDone), "Spline IK Result", 0)
	rootMap.AddBone(pc.Name, root.Name)

	n := 1
	for parent := pc.Parent; parent != nil && n < sik.ChainCount && n < maxChainLength; parent = parent.Parent {
		b.addRelation(boneKey(ob, parent.Name, depsnode.OpBoneReady), solver, "Spline IK Solver Update", 0)
		b.addRelation(solver, boneKey(ob, parent.Name, depsnode.OpBoneDone), "Spline IK Solver Result", 0)
		rootMap.AddBone(parent.Name, root.Name)
		n++
	}
	b.addRelation(solver, poseKey(ob, depsnode.OpPoseDone), "PoseEval Result-Bone Link", 0)

	b.linkInterChains(ob, solver, root, rootMap)
}

// linkInterChains orders a solver after the chain it overlaps with: the
// topmost ancestor of root that still shares a chain root with it must be
// done first.
func (b *Builder) linkInterChains(ob *scene.Object, solver operationKey, root *scene.PoseChannel, rootMap *RootChainMap) {
	var deepest *scene.PoseChannel
	for p := root.Parent; p != nil; p = p.Parent {
		if !rootMap.HasCommonRoot(root.Name, p.Name) {
			break
		}
		deepest = p
	}
	if deepest == nil {
		return
	}
	b.addRelation(boneKey(ob, deepest.Name, depsnode.OpBoneDone), solver, "IK Chain Overlap", 0)
}

func (b *Builder) linkBone(ob *scene.Object, pc *scene.PoseChannel, rootMap *RootChainMap) {
	local := boneKey(ob, pc.Name, depsnode.OpBoneLocal)
	poseParent := boneKey(ob, pc.Name, depsnode.OpBonePoseParent)
	ready := boneKey(ob, pc.Name, depsnode.OpBoneReady)
	done := boneKey(ob, pc.Name, depsnode.OpBoneDone)
	poseDone := poseKey(ob, depsnode.OpPoseDone)
	cleanup := poseKey(ob, depsnode.OpPoseCleanup)

	b.addRelation(poseKey(ob, depsnode.OpPoseInit), local, "Pose Init -> Bone Local", depsnode.RelGodmode)
	b.addRelation(local, poseParent, "Bone Local -> Bone Pose", 0)

	if pc.Parent != nil {
		// Reading a parent that shares an IK chain after its solver ran
		// would close a loop through the solver.
		opcode := depsnode.OpBoneDone
		if rootMap.HasCommonRoot(pc.Name, pc.Parent.Name) {
			opcode = depsnode.OpBoneReady
		}
		b.addRelation(boneKey(ob, pc.Parent.Name, opcode), poseParent, "Parent Bone -> Child Bone", 0)
	}

	if len(pc.Constraints) > 0 {
		b.linkConstraints(ob, depsnode.NodeBone, pc.Name, pc.Constraints, rootMap)
		stack := boneKey(ob, pc.Name, depsnode.OpBoneConstraints)
		b.addRelation(poseParent, stack, "Pose -> Constraints Stack", 0)
		b.addRelation(local, stack, "Local -> Constraints Stack", 0)
		b.addRelation(stack, ready, "Constraints -> Ready", 0)
	} else {
		b.addRelation(poseParent, ready, "Pose -> Ready", 0)
	}
	b.addRelation(ready, done, "Ready -> Done", 0)

	if pc.HasBBoneSegments() {
		segments := boneKey(ob, pc.Name, depsnode.OpBoneSegments)
		b.addRelation(done, segments, "Done -> B-Bone Segments", 0)
		if prev := pc.HandlePrev; prev != nil {
			opcode := depsnode.OpBoneDone
			if pc.Bone != nil && pc.Bone.AddParentEndRoll && prev.HasBBoneSegments() {
				opcode = depsnode.OpBoneSegments
			}
			b.addRelation(boneKey(ob, prev.Name, opcode), segments, "Prev Handle -> B-Bone Segments", 0)
		}
		if next := pc.HandleNext; next != nil {
			b.addRelation(boneKey(ob, next.Name, depsnode.OpBoneDone), segments, "Next Handle -> B-Bone Segments", 0)
		}
		b.addRelation(segments, poseDone, "PoseEval Result-Bone Link", depsnode.RelGodmode)
		b.addRelation(segments, cleanup, "Cleanup dependency", depsnode.RelGodmode)
	} else {
		b.addRelation(done, poseDone, "PoseEval Result-Bone Link", 0)
		b.addRelation(done, cleanup, "Done -> Cleanup", 0)
		b.addRelation(ready, cleanup, "Ready -> Cleanup", 0)
	}

	for _, name := range sortedProperties(pc.Properties) {
		prop := boneKey(ob, pc.Name, depsnode.OpIDProperty).named(name)
		b.addRelation(opKey(ob, depsnode.NodeParameters, depsnode.OpParametersEntry), prop, "Parameters Entry -> Bone ID Property", depsnode.RelCheckBeforeAdd)
		b.addRelation(prop, opKey(ob, depsnode.NodeParameters, depsnode.OpParametersExit), "ID Property -> Done", depsnode.RelCheckBeforeAdd)
	}

	if pc.Custom != nil {
		b.linkObject(pc.Custom)
		b.addRelation(compKey(pc.Custom, depsnode.NodeVisibility), compKey(ob, depsnode.NodeVisibility), "Custom Shape Visibility", 0)
	}
}

// constraintAnimated reports whether an animation curve or driver of ob
// writes a property of con.
func constraintAnimated(ob *scene.Object, con *scene.Constraint) bool {
	anim := ob.Anim
	if anim == nil {
		return false
	}
	writes := func(path string) bool {
		ptr, _, err := proppath.Resolve(ob, path)
		return err == nil && ptr.Type == proppath.StructConstraint && ptr.Data == con
	}
	if anim.Action != nil {
		for _, fc := range anim.Action.Curves {
			if writes(fc.Path) {
				return true
			}
		}
	}
	for _, d := range anim.Drivers {
		if writes(d.Path) {
			return true
		}
	}
	return false
}
