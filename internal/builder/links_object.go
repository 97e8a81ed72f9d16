package builder

import (
	"github.com/vk/evalgraph/internal/depsnode"
	"github.com/vk/evalgraph/internal/scene"
)

// linkNodes is the second pass: it adds the relations between the nodes
// created by createNodes.
func (b *Builder) linkNodes(sc *scene.Scene) {
	b.logger.Debug("Starting node linking pass.")
	b.linkScene(sc)
	b.linkCopyOnEval()
	b.logger.Debug("Finished node linking pass.", "relations", len(b.graph.Relations()), "skipped", b.skipped)
}

func (b *Builder) linkID(e scene.Entity) {
	switch v := e.(type) {
	case *scene.Object:
		b.linkObject(v)
	case *scene.Armature:
		b.linkArmature(v)
	case *scene.Mesh:
		b.linkMesh(v)
	case *scene.Curve:
		b.linkCurve(v)
	case *scene.Lattice:
		b.linkLattice(v)
	case *scene.ShapeKey:
		b.linkShapeKey(v)
	case *scene.Camera:
		b.linkCamera(v)
	case *scene.Action:
		b.linkAction(v)
	case *scene.Collection:
		b.linkCollection(v)
	case *scene.Scene:
		b.linkScene(v)
	case nil:
	default:
		if firstVisit(b.linked, e) {
			b.linkParameters(e)
		}
	}
}

func (b *Builder) linkParameters(e scene.Entity) {
	entry := opKey(e, depsnode.NodeParameters, depsnode.OpParametersEntry)
	eval := opKey(e, depsnode.NodeParameters, depsnode.OpParametersEval)
	exit := opKey(e, depsnode.NodeParameters, depsnode.OpParametersExit)
	b.addRelation(entry, eval, "Entry -> Eval", 0)
	b.addRelation(eval, exit, "Eval -> Exit", 0)
}

func (b *Builder) linkIDProperties(e scene.Entity) {
	exit := opKey(e, depsnode.NodeParameters, depsnode.OpParametersExit)
	for _, name := range sortedProperties(e.DataID().Properties) {
		prop := opKey(e, depsnode.NodeParameters, depsnode.OpIDProperty).named(name)
		b.addRelation(prop, exit, "ID Property -> Done", depsnode.RelCheckBeforeAdd)
	}
}

func (b *Builder) linkScene(sc *scene.Scene) {
	if !firstVisit(b.linked, sc) {
		return
	}
	b.linkParameters(sc)
	b.linkIDProperties(sc)
	b.linkAnimData(sc)
	if sc.Master != nil {
		b.linkCollection(sc.Master)
	}
	if sc.Camera != nil {
		b.linkObject(sc.Camera)
	}
}

func (b *Builder) linkCollection(col *scene.Collection) {
	if !firstVisit(b.linked, col) {
		return
	}
	b.linkParameters(col)
	b.linkIDProperties(col)
	for _, ob := range col.Objects {
		b.linkObject(ob)
	}
	for _, child := range col.Children {
		b.linkCollection(child)
	}
}

func (b *Builder) linkObject(ob *scene.Object) {
	if !firstVisit(b.linked, ob) {
		return
	}
	b.linkParameters(ob)
	b.linkIDProperties(ob)
	b.linkObjectTransform(ob)
	b.linkObjectFlags(ob)
	b.linkAnimData(ob)

	if ob.Parent != nil {
		b.linkObject(ob.Parent)
	}
	for _, t := range constraintTargets(ob.Constraints) {
		b.linkObject(t)
	}
	for _, md := range ob.Modifiers {
		if md.Object != nil {
			b.linkObject(md.Object)
		}
	}
	b.linkObjectData(ob)
	if ob.Kind == scene.ObjectArmature && ob.Pose != nil {
		b.linkRig(ob)
		for _, pc := range ob.Pose.Channels {
			for _, t := range constraintTargets(pc.Constraints) {
				b.linkObject(t)
			}
		}
	}
}

// constraintTargets lists every object a constraint stack reads.
func constraintTargets(stack []*scene.Constraint) []*scene.Object {
	var out []*scene.Object
	add := func(ob *scene.Object) {
		if ob != nil {
			out = append(out, ob)
		}
	}
	for _, con := range stack {
		for _, t := range con.Targets {
			add(t.Object)
		}
		if con.IK != nil {
			add(con.IK.Target)
			add(con.IK.PoleTarget)
		}
		if con.SplineIK != nil {
			add(con.SplineIK.Curve)
		}
	}
	return out
}

func (b *Builder) linkObjectTransform(ob *scene.Object) {
	tk := func(opcode depsnode.OperationCode) operationKey {
		return opKey(ob, depsnode.NodeTransform, opcode)
	}
	b.addRelation(tk(depsnode.OpTransformInit), tk(depsnode.OpTransformLocal), "Transform Init", 0)

	last := tk(depsnode.OpTransformLocal)
	if ob.Parent != nil {
		b.addRelation(last, tk(depsnode.OpTransformParent), "ObLocal -> ObParent", 0)
		b.linkObjectParent(ob)
		last = tk(depsnode.OpTransformParent)
	}
	if len(ob.Constraints) > 0 {
		b.addRelation(last, tk(depsnode.OpTransformConstraints), "ObBase -> ObConstraints", 0)
		b.linkConstraints(ob, depsnode.NodeTransform, "", ob.Constraints, nil)
		last = tk(depsnode.OpTransformConstraints)
	}
	b.addRelation(last, tk(depsnode.OpTransformEval), "Transform Eval", 0)
	b.addRelation(tk(depsnode.OpTransformEval), tk(depsnode.OpTransformSimulationInit), "Transform Eval -> Simulation Init", 0)
	b.addRelation(tk(depsnode.OpTransformSimulationInit), tk(depsnode.OpTransformFinal), "Simulation -> Final Transform", 0)
	b.addRelation(tk(depsnode.OpTransformFinal), opKey(ob, depsnode.NodeSynchronization, depsnode.OpSynchronizeToOriginal), "Synchronize to Original", 0)

	dimensions := opKey(ob, depsnode.NodeParameters, depsnode.OpDimensions)
	b.addRelation(compKey(ob, depsnode.NodeTransform), dimensions, "Transform -> Dimensions", depsnode.RelNoVisibilityChange)
	if ob.Kind.HasGeometry() {
		b.addRelation(compKey(ob, depsnode.NodeGeometry), dimensions, "Geometry -> Dimensions", depsnode.RelNoVisibilityChange)
	}
}

func (b *Builder) linkObjectFlags(ob *scene.Object) {
	entry := opKey(ob, depsnode.NodeObjectFromLayer, depsnode.OpObjectFromLayerEntry)
	flags := opKey(ob, depsnode.NodeObjectFromLayer, depsnode.OpObjectBaseFlags)
	exit := opKey(ob, depsnode.NodeObjectFromLayer, depsnode.OpObjectFromLayerExit)
	b.addRelation(entry, flags, "Base flags flush Entry", 0)
	b.addRelation(flags, exit, "Base flags flush Exit", 0)
	b.addRelation(flags, opKey(ob, depsnode.NodeSynchronization, depsnode.OpSynchronizeToOriginal), "Base flags -> Synchronize", 0)
}

func (b *Builder) linkObjectParent(ob *scene.Object) {
	parent := ob.Parent
	target := opKey(ob, depsnode.NodeTransform, depsnode.OpTransformParent)

	switch ob.ParentType {
	case scene.ParentBone:
		if _, ok := parent.Pose.Channel(ob.ParentBone); ok {
			b.addRelation(boneKey(parent, ob.ParentBone, depsnode.OpBoneDone), target, "Bone Parent", 0)
			b.addRelation(compKey(parent, depsnode.NodeTransform), target, "Armature Parent", 0)
			return
		}
		b.logger.Warn("Parent bone not found, using object parent.", "object", ob.Name, "parent", parent.Name, "bone", ob.ParentBone)
		b.addRelation(compKey(parent, depsnode.NodeTransform), target, "Object Parent", 0)

	case scene.ParentVertex:
		b.addRelation(compKey(parent, depsnode.NodeGeometry), target, "Vertex Parent", 0)
		b.addRelation(compKey(parent, depsnode.NodeTransform), target, "Vertex Parent TFM", 0)

	case scene.ParentArmatureDeform:
		b.addRelation(compKey(parent, depsnode.NodeTransform), target, "Armature Deform Parent", 0)
		if ob.Kind.HasGeometry() {
			b.addRelation(compKey(parent, depsnode.NodeEvalPose), compKey(ob, depsnode.NodeGeometry), "Armature Deform Parent Pose", 0)
		}

	default:
		b.addRelation(compKey(parent, depsnode.NodeTransform), target, "Object Parent", 0)
		if cu, ok := parent.Data.(*scene.Curve); ok && cu.Path {
			b.addRelation(compKey(parent, depsnode.NodeGeometry), target, "Curve Follow Parent", 0)
		}
	}
}

// readsTargetWorld reports whether a constraint type reads the world matrix
// of its target object on top of the bone.
func readsTargetWorld(t scene.ConstraintType) bool {
	switch t {
	case scene.ConstraintChildOf, scene.ConstraintCopyLocation, scene.ConstraintCopyRotation,
		scene.ConstraintCopyScale, scene.ConstraintCopyTransforms:
		return true
	}
	return false
}

// linkConstraints links the targets of a constraint stack to the stack's
// operation. rootMap is nil for object-level stacks.
func (b *Builder) linkConstraints(owner *scene.Object, comp depsnode.NodeType, bone string, stack []*scene.Constraint, rootMap *RootChainMap) {
	stackOp := opKey(owner, depsnode.NodeTransform, depsnode.OpTransformConstraints)
	if comp == depsnode.NodeBone {
		stackOp = boneKey(owner, bone, depsnode.OpBoneConstraints)
	}

	for _, con := range stack {
		if con.Type.IsChain() {
			continue
		}
		switch con.Type {
		case scene.ConstraintFollowPath, scene.ConstraintClampTo:
			for _, t := range con.Targets {
				if t.Object == nil {
					continue
				}
				b.addRelation(compKey(t.Object, depsnode.NodeGeometry), stackOp, con.Name, 0)
				b.addRelation(compKey(t.Object, depsnode.NodeTransform), stackOp, con.Name, 0)
			}
			if con.Type == scene.ConstraintFollowPath {
				b.addRelation(timeSourceKey{}, stackOp, "TimeSrc -> Follow Path", 0)
			}
			continue
		case scene.ConstraintTransformCache:
			b.addRelation(timeSourceKey{}, stackOp, "TimeSrc -> Transform Cache", 0)
		}

		for _, t := range con.Targets {
			target := t.Object
			if target == nil {
				continue
			}
			switch {
			case target.Kind == scene.ObjectArmature && t.Subtarget != "":
				opcode := boneTargetOpcode(target, t.Subtarget, owner, bone, rootMap)
				if pc, ok := target.Pose.Channel(t.Subtarget); ok && con.UseBBoneShape && pc.HasBBoneSegments() {
					opcode = depsnode.OpBoneSegments
				}
				b.addRelation(boneKey(target, t.Subtarget, opcode), stackOp, con.Name, 0)
				if target != owner && (readsTargetWorld(con.Type) || con.Type == scene.ConstraintArmature) {
					b.addRelation(compKey(target, depsnode.NodeTransform), stackOp, con.Name, 0)
				}

			case con.Type == scene.ConstraintShrinkwrap:
				b.addRelation(compKey(target, depsnode.NodeGeometry), stackOp, con.Name, 0)
				b.addRelation(compKey(target, depsnode.NodeTransform), stackOp, con.Name, 0)

			case t.Subtarget != "" && (target.Kind == scene.ObjectMesh || target.Kind == scene.ObjectLattice):
				// Vertex group target.
				b.addRelation(compKey(target, depsnode.NodeGeometry), stackOp, con.Name, 0)
				if readsTargetWorld(con.Type) {
					b.addRelation(compKey(target, depsnode.NodeTransform), stackOp, con.Name, 0)
				}

			case target == owner:
				// A bone reading its own armature object is ordered after
				// the object transform; an object reading itself only sees
				// its parented transform.
				if target.Kind == scene.ObjectArmature && comp == depsnode.NodeBone {
					b.addRelation(opKey(target, depsnode.NodeTransform, depsnode.OpTransformFinal), stackOp, con.Name, 0)
				} else {
					b.addRelation(opKey(target, depsnode.NodeTransform, depsnode.OpTransformParent), stackOp, con.Name, 0)
				}

			default:
				b.addRelation(opKey(target, depsnode.NodeTransform, depsnode.OpTransformFinal), stackOp, con.Name, 0)
			}
		}
	}
}

// linkObjectData links an object to its data-block and its modifier stack.
func (b *Builder) linkObjectData(ob *scene.Object) {
	if ob.Data != nil {
		b.linkID(ob.Data)
	}
	if !ob.Kind.HasGeometry() {
		return
	}

	evalInit := opKey(ob, depsnode.NodeGeometry, depsnode.OpGeometryEvalInit)
	eval := opKey(ob, depsnode.NodeGeometry, depsnode.OpGeometryEval)
	done := opKey(ob, depsnode.NodeGeometry, depsnode.OpGeometryEvalDone)
	if ob.Data != nil {
		b.addRelation(compKey(ob.Data, depsnode.NodeGeometry), evalInit, "Object Geometry Base Data", 0)
	}
	b.addRelation(evalInit, eval, "Geometry Eval Init", 0)
	b.addRelation(eval, done, "Geometry Eval Done", 0)
	b.addRelation(done, opKey(ob, depsnode.NodeSynchronization, depsnode.OpSynchronizeToOriginal), "Synchronize to Original", 0)

	b.linkModifiers(ob)
}

func (b *Builder) linkModifiers(ob *scene.Object) {
	geometry := compKey(ob, depsnode.NodeGeometry)
	for _, md := range ob.Modifiers {
		target := md.Object
		if target == nil || target == ob {
			continue
		}
		switch md.Type {
		case scene.ModifierArmature:
			b.addRelation(compKey(target, depsnode.NodeEvalPose), geometry, "Armature Modifier", 0)
			b.addRelation(compKey(target, depsnode.NodeTransform), geometry, "Armature Modifier Transform", 0)
		case scene.ModifierLattice:
			b.addRelation(compKey(target, depsnode.NodeGeometry), geometry, "Lattice Modifier", 0)
			b.addRelation(compKey(target, depsnode.NodeTransform), geometry, "Lattice Modifier Transform", 0)
		case scene.ModifierHook:
			b.addRelation(compKey(target, depsnode.NodeTransform), geometry, "Hook Modifier", 0)
		case scene.ModifierDisplace:
			b.addRelation(compKey(target, depsnode.NodeTransform), geometry, "Displace Modifier", 0)
		case scene.ModifierNodes:
			b.addRelation(compKey(target, depsnode.NodeTransform), geometry, "Nodes Modifier Transform", 0)
			if target.Kind.HasGeometry() {
				b.addRelation(compKey(target, depsnode.NodeGeometry), geometry, "Nodes Modifier Geometry", 0)
			}
		}
	}
}

func (b *Builder) linkArmature(arm *scene.Armature) {
	if !firstVisit(b.linked, arm) {
		return
	}
	b.linkParameters(arm)
	b.linkIDProperties(arm)
	b.linkAnimData(arm)
	b.addRelation(compKey(arm, depsnode.NodeParameters), opKey(arm, depsnode.NodeArmature, depsnode.OpArmatureEval), "Armature Parameters", 0)
}

// linkDataGeometry links the geometry component of an object data-block.
func (b *Builder) linkDataGeometry(e scene.Entity) {
	b.linkParameters(e)
	b.linkIDProperties(e)
	b.linkAnimData(e)
	b.addRelation(opKey(e, depsnode.NodeGeometry, depsnode.OpGeometryEval), opKey(e, depsnode.NodeGeometry, depsnode.OpGeometryEvalDone), "Geometry Eval -> Done", 0)
	b.addRelation(compKey(e, depsnode.NodeParameters), compKey(e, depsnode.NodeGeometry), "Data Parameters -> Geometry", 0)
	if key := scene.GeometryKey(e); key != nil {
		b.linkShapeKey(key)
		b.addRelation(compKey(key, depsnode.NodeGeometry), compKey(e, depsnode.NodeGeometry), "Shapekeys", 0)
	}
}

func (b *Builder) linkMesh(me *scene.Mesh) {
	if firstVisit(b.linked, me) {
		b.linkDataGeometry(me)
	}
}

func (b *Builder) linkCurve(cu *scene.Curve) {
	if !firstVisit(b.linked, cu) {
		return
	}
	b.linkDataGeometry(cu)
	if cu.TaperObject != nil {
		b.linkObject(cu.TaperObject)
		b.addRelation(compKey(cu.TaperObject, depsnode.NodeGeometry), compKey(cu, depsnode.NodeGeometry), "Curve Taper Layer", 0)
	}
	if cu.BevelObject != nil {
		b.linkObject(cu.BevelObject)
		b.addRelation(compKey(cu.BevelObject, depsnode.NodeGeometry), compKey(cu, depsnode.NodeGeometry), "Curve Bevel Layer", 0)
	}
}

func (b *Builder) linkLattice(lt *scene.Lattice) {
	if firstVisit(b.linked, lt) {
		b.linkDataGeometry(lt)
	}
}

func (b *Builder) linkShapeKey(key *scene.ShapeKey) {
	if !firstVisit(b.linked, key) {
		return
	}
	b.linkParameters(key)
	b.linkIDProperties(key)
	b.linkAnimData(key)
	geometry := compKey(key, depsnode.NodeGeometry)
	eval := opKey(key, depsnode.NodeParameters, depsnode.OpParametersEval)
	for _, block := range key.Blocks {
		blockKey := eval.named(block.Name)
		b.addRelation(blockKey, geometry, "Key Block Properties", 0)
		b.addRelation(blockKey, eval, "Key Block Properties", 0)
	}
}

func (b *Builder) linkCamera(ca *scene.Camera) {
	if !firstVisit(b.linked, ca) {
		return
	}
	b.linkParameters(ca)
	b.linkIDProperties(ca)
	b.linkAnimData(ca)
	if ca.DOFObject != nil {
		b.linkObject(ca.DOFObject)
		b.addRelation(compKey(ca.DOFObject, depsnode.NodeTransform), opKey(ca, depsnode.NodeParameters, depsnode.OpParametersEval), "Camera DOF", depsnode.RelFlushUserEditOnly)
	}
}
