package builder

import (
	"sort"

	"github.com/vk/evalgraph/internal/depsnode"
	"github.com/vk/evalgraph/internal/scene"
)

// createNodes is the first pass: it creates every node the scene needs.
func (b *Builder) createNodes(sc *scene.Scene) {
	b.logger.Debug("Starting node creation pass.")
	b.graph.TimeSource()
	b.createScene(sc)
	b.logger.Debug("Finished node creation pass.", "id_nodes", len(b.graph.IDNodes()))
}

func (b *Builder) createID(e scene.Entity) {
	switch v := e.(type) {
	case *scene.Object:
		b.createObject(v)
	case *scene.Armature:
		b.createArmature(v)
	case *scene.Mesh:
		b.createMesh(v)
	case *scene.Curve:
		b.createCurve(v)
	case *scene.Lattice:
		b.createLattice(v)
	case *scene.ShapeKey:
		b.createShapeKey(v)
	case *scene.Camera:
		b.createCamera(v)
	case *scene.Action:
		b.createAction(v)
	case *scene.Collection:
		b.createCollection(v)
	case *scene.Scene:
		b.createScene(v)
	case nil:
	default:
		if firstVisit(b.created, e) {
			b.createIDNode(e)
			b.createParameters(e)
		}
	}
}

// createIDNode adds the ID node of e together with its copy-on-eval
// operation.
func (b *Builder) createIDNode(e scene.Entity) {
	b.graph.AddIDNode(e)
	if !e.DataID().Type.NeedsEvalCopy() {
		return
	}
	b.graph.ExpandMirror(e)
	b.op(opKey(e, depsnode.NodeCopyOnEval, depsnode.OpCopyOnEval))
}

func (b *Builder) createParameters(e scene.Entity) {
	setEntry(b.noop(opKey(e, depsnode.NodeParameters, depsnode.OpParametersEntry)))
	b.op(opKey(e, depsnode.NodeParameters, depsnode.OpParametersEval))
	setExit(b.noop(opKey(e, depsnode.NodeParameters, depsnode.OpParametersExit)))
}

func (b *Builder) createIDProperties(e scene.Entity) {
	for _, name := range sortedProperties(e.DataID().Properties) {
		b.noop(opKey(e, depsnode.NodeParameters, depsnode.OpIDProperty).named(name))
	}
}

func sortedProperties(props scene.Properties) []string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (b *Builder) createAnimData(e scene.Entity) {
	anim := e.DataID().Anim
	if anim == nil {
		return
	}
	if anim.Action != nil {
		setEntry(b.noop(opKey(e, depsnode.NodeAnimation, depsnode.OpAnimationEntry)))
		b.op(opKey(e, depsnode.NodeAnimation, depsnode.OpAnimationEval))
		setExit(b.noop(opKey(e, depsnode.NodeAnimation, depsnode.OpAnimationExit)))
		b.createAction(anim.Action)
	}
	for _, d := range anim.Drivers {
		b.op(driverKey(e, d))
		for _, v := range d.Variables {
			for _, t := range v.Targets {
				b.createID(t.ID)
			}
		}
	}
}

func driverKey(e scene.Entity, d *scene.Driver) operationKey {
	k := opKey(e, depsnode.NodeParameters, depsnode.OpDriver).named(d.Path)
	k.tag = d.Index
	return k
}

func (b *Builder) createScene(sc *scene.Scene) {
	if !firstVisit(b.created, sc) {
		return
	}
	b.createIDNode(sc)
	b.createParameters(sc)
	b.createIDProperties(sc)
	b.createAnimData(sc)
	if sc.Master != nil {
		b.createCollection(sc.Master)
	}
	if sc.Camera != nil {
		b.createObject(sc.Camera)
	}
}

func (b *Builder) createCollection(col *scene.Collection) {
	if !firstVisit(b.created, col) {
		return
	}
	b.createIDNode(col)
	b.createParameters(col)
	b.createIDProperties(col)
	for _, ob := range col.Objects {
		b.createObject(ob)
	}
	for _, child := range col.Children {
		b.createCollection(child)
	}
}

func (b *Builder) createObject(ob *scene.Object) {
	if !firstVisit(b.created, ob) {
		return
	}
	b.createIDNode(ob)
	b.createParameters(ob)
	b.createIDProperties(ob)
	b.op(opKey(ob, depsnode.NodeParameters, depsnode.OpDimensions))
	b.createObjectTransform(ob)
	b.createObjectFlags(ob)
	b.createAnimData(ob)

	if ob.Parent != nil {
		b.createObject(ob.Parent)
	}
	b.createConstraintTargets(ob.Constraints)
	for _, md := range ob.Modifiers {
		if md.Object != nil {
			b.createObject(md.Object)
		}
	}
	if ob.Data != nil {
		b.createID(ob.Data)
	}
	if ob.Kind.HasGeometry() {
		setEntry(b.noop(opKey(ob, depsnode.NodeGeometry, depsnode.OpGeometryEvalInit)))
		b.op(opKey(ob, depsnode.NodeGeometry, depsnode.OpGeometryEval))
		setExit(b.noop(opKey(ob, depsnode.NodeGeometry, depsnode.OpGeometryEvalDone)))
	}
	if ob.Kind == scene.ObjectArmature {
		b.createRig(ob)
	}
}

func (b *Builder) createObjectTransform(ob *scene.Object) {
	setEntry(b.noop(opKey(ob, depsnode.NodeTransform, depsnode.OpTransformInit)))
	b.op(opKey(ob, depsnode.NodeTransform, depsnode.OpTransformLocal))
	if ob.Parent != nil {
		b.op(opKey(ob, depsnode.NodeTransform, depsnode.OpTransformParent))
	}
	if len(ob.Constraints) > 0 {
		b.op(opKey(ob, depsnode.NodeTransform, depsnode.OpTransformConstraints))
	}
	b.op(opKey(ob, depsnode.NodeTransform, depsnode.OpTransformEval))
	b.noop(opKey(ob, depsnode.NodeTransform, depsnode.OpTransformSimulationInit))
	setExit(b.op(opKey(ob, depsnode.NodeTransform, depsnode.OpTransformFinal)))
}

// createObjectFlags adds scene membership, visibility and the write-back of
// evaluated state to the original object.
func (b *Builder) createObjectFlags(ob *scene.Object) {
	setEntry(b.noop(opKey(ob, depsnode.NodeObjectFromLayer, depsnode.OpObjectFromLayerEntry)))
	b.op(opKey(ob, depsnode.NodeObjectFromLayer, depsnode.OpObjectBaseFlags))
	setExit(b.noop(opKey(ob, depsnode.NodeObjectFromLayer, depsnode.OpObjectFromLayerExit)))

	// Read by the evaluator directly, nothing inside the graph consumes it.
	if vis := b.noop(opKey(ob, depsnode.NodeVisibility, depsnode.OpVisibility)); vis != nil {
		vis.Pin()
	}
	b.op(opKey(ob, depsnode.NodeSynchronization, depsnode.OpSynchronizeToOriginal))
}

func (b *Builder) createConstraintTargets(stack []*scene.Constraint) {
	for _, con := range stack {
		for _, t := range con.Targets {
			if t.Object != nil {
				b.createObject(t.Object)
			}
		}
		if ik := con.IK; ik != nil {
			if ik.Target != nil {
				b.createObject(ik.Target)
			}
			if ik.PoleTarget != nil {
				b.createObject(ik.PoleTarget)
			}
		}
		if sik := con.SplineIK; sik != nil && sik.Curve != nil {
			b.createObject(sik.Curve)
		}
	}
}

func (b *Builder) createRig(ob *scene.Object) {
	arm := ob.Armature()
	if arm == nil {
		b.logger.Warn("Armature object has no armature data.", "object", ob.Name)
		return
	}
	if ob.Pose == nil {
		b.logger.Debug("Rebuilding missing pose.", "object", ob.Name)
		ob.Pose = scene.BuildPose(arm)
	}

	setEntry(b.op(poseKey(ob, depsnode.OpPoseInit)))
	b.op(poseKey(ob, depsnode.OpPoseInitIK))
	b.op(poseKey(ob, depsnode.OpPoseCleanup))
	setExit(b.op(poseKey(ob, depsnode.OpPoseDone)))

	for _, pc := range ob.Pose.Channels {
		setEntry(b.op(boneKey(ob, pc.Name, depsnode.OpBoneLocal)))
		b.op(boneKey(ob, pc.Name, depsnode.OpBonePoseParent))
		b.noop(boneKey(ob, pc.Name, depsnode.OpBoneReady))
		done := b.op(boneKey(ob, pc.Name, depsnode.OpBoneDone))
		if pc.HasBBoneSegments() {
			setExit(b.op(boneKey(ob, pc.Name, depsnode.OpBoneSegments)))
		} else {
			setExit(done)
		}
		if len(pc.Constraints) > 0 {
			b.op(boneKey(ob, pc.Name, depsnode.OpBoneConstraints))
		}
		for _, name := range sortedProperties(pc.Properties) {
			b.noop(boneKey(ob, pc.Name, depsnode.OpIDProperty).named(name))
		}

		for _, con := range pc.Constraints {
			if con.Disabled {
				continue
			}
			switch {
			case con.Type == scene.ConstraintIK && con.IK != nil:
				if root := ikRoot(pc, con.IK); root != nil {
					b.op(poseKey(ob, depsnode.OpPoseIKSolver).named(root.Name))
				}
			case con.Type == scene.ConstraintSplineIK && con.SplineIK != nil:
				root := splineIKRoot(pc, con.SplineIK)
				b.op(poseKey(ob, depsnode.OpPoseSplineIKSolver).named(root.Name))
			}
		}
		b.createConstraintTargets(pc.Constraints)
		if pc.Custom != nil {
			b.createObject(pc.Custom)
		}
	}
}

func (b *Builder) createArmature(arm *scene.Armature) {
	if !firstVisit(b.created, arm) {
		return
	}
	b.createIDNode(arm)
	b.createParameters(arm)
	b.createIDProperties(arm)
	b.createAnimData(arm)
	b.op(opKey(arm, depsnode.NodeArmature, depsnode.OpArmatureEval))
}

// createDataGeometry adds the geometry component of an object data-block.
func (b *Builder) createDataGeometry(e scene.Entity) {
	b.createIDNode(e)
	b.createParameters(e)
	b.createIDProperties(e)
	b.createAnimData(e)
	setEntry(b.op(opKey(e, depsnode.NodeGeometry, depsnode.OpGeometryEval)))
	setExit(b.noop(opKey(e, depsnode.NodeGeometry, depsnode.OpGeometryEvalDone)))
	if key := scene.GeometryKey(e); key != nil {
		b.createShapeKey(key)
	}
}

func (b *Builder) createMesh(me *scene.Mesh) {
	if firstVisit(b.created, me) {
		b.createDataGeometry(me)
	}
}

func (b *Builder) createCurve(cu *scene.Curve) {
	if !firstVisit(b.created, cu) {
		return
	}
	b.createDataGeometry(cu)
	if cu.TaperObject != nil {
		b.createObject(cu.TaperObject)
	}
	if cu.BevelObject != nil {
		b.createObject(cu.BevelObject)
	}
}

func (b *Builder) createLattice(lt *scene.Lattice) {
	if firstVisit(b.created, lt) {
		b.createDataGeometry(lt)
	}
}

func (b *Builder) createShapeKey(key *scene.ShapeKey) {
	if !firstVisit(b.created, key) {
		return
	}
	b.createIDNode(key)
	b.createParameters(key)
	b.createIDProperties(key)
	b.createAnimData(key)
	b.op(opKey(key, depsnode.NodeGeometry, depsnode.OpGeometryShapekey))
	for _, block := range key.Blocks {
		b.noop(opKey(key, depsnode.NodeParameters, depsnode.OpParametersEval).named(block.Name))
	}
}

func (b *Builder) createCamera(ca *scene.Camera) {
	if !firstVisit(b.created, ca) {
		return
	}
	b.createIDNode(ca)
	b.createParameters(ca)
	b.createIDProperties(ca)
	b.createAnimData(ca)
	if ca.DOFObject != nil {
		b.createObject(ca.DOFObject)
	}
}

func (b *Builder) createAction(act *scene.Action) {
	if !firstVisit(b.created, act) {
		return
	}
	b.createIDNode(act)
	b.noop(opKey(act, depsnode.NodeAnimation, depsnode.OpAnimationEval))
}
