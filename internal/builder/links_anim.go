package builder

import (
	"strings"

	"github.com/vk/evalgraph/internal/depsnode"
	"github.com/vk/evalgraph/internal/proppath"
	"github.com/vk/evalgraph/internal/resolver"
	"github.com/vk/evalgraph/internal/scene"
)

func (b *Builder) linkAction(act *scene.Action) {
	if !firstVisit(b.linked, act) {
		return
	}
	b.addRelation(timeSourceKey{}, compKey(act, depsnode.NodeAnimation), "TimeSrc -> Animation", 0)
}

// linkAnimData links the action and drivers of e to the properties they
// write.
func (b *Builder) linkAnimData(e scene.Entity) {
	anim := e.DataID().Anim
	if anim == nil {
		return
	}
	animation := compKey(e, depsnode.NodeAnimation)

	if anim.Action != nil {
		b.linkAction(anim.Action)
		entry := opKey(e, depsnode.NodeAnimation, depsnode.OpAnimationEntry)
		eval := opKey(e, depsnode.NodeAnimation, depsnode.OpAnimationEval)
		exit := opKey(e, depsnode.NodeAnimation, depsnode.OpAnimationExit)
		b.addRelation(entry, eval, "Animation Entry -> Eval", 0)
		b.addRelation(eval, exit, "Animation Eval -> Exit", 0)
		b.addRelation(compKey(anim.Action, depsnode.NodeAnimation), animation, "Action -> Animation", 0)
		b.addRelation(timeSourceKey{}, animation, "TimeSrc -> Animation", 0)
		b.linkAnimationCurves(e, anim.Action.Curves)
	}

	for _, d := range anim.Drivers {
		b.linkDriver(e, d)
		if anim.Action != nil {
			b.addRelation(animation, driverKey(e, d), "AnimData Before Drivers", 0)
		}
	}
}

func (b *Builder) linkAnimationCurves(e scene.Entity, curves []*scene.FCurve) {
	animation := compKey(e, depsnode.NodeAnimation)
	from := animation.find(b)
	if from == nil {
		return
	}
	from = exitOf(from)
	if from == nil {
		return
	}

	for _, fc := range curves {
		ptr, prop, err := proppath.Resolve(e, fc.Path)
		if err != nil {
			b.logger.Warn("Animation curve path does not resolve.", "id", entityName(e), "path", fc.Path, "error", err)
			continue
		}
		node := b.query.FindNode(ptr, prop, resolver.Entry)
		if node == nil {
			b.logger.Debug("Animation curve target has no node.", "id", entityName(e), "path", fc.Path)
			continue
		}
		to, ok := entryOf(node).(*depsnode.OperationNode)
		if !ok {
			continue
		}

		// Bones are only ever evaluated after pose init, animating each one
		// separately adds nothing.
		if to.Opcode == depsnode.OpBoneLocal {
			if ob, ok := e.(*scene.Object); ok {
				b.addRelation(animation, poseKey(ob, depsnode.OpPoseInit), "Animation -> Prop", depsnode.RelCheckBeforeAdd)
				continue
			}
		}
		b.connect(from, to, "Animation -> Prop", depsnode.RelCheckBeforeAdd)

		// Animation writing into a nested data-block waits for its copy.
		if target := to.Owner().Owner(); target.Orig != e {
			b.addRelation(compKey(target.Orig, depsnode.NodeCopyOnEval), animation, "Animated CoW -> Animation", depsnode.RelCheckBeforeAdd|depsnode.RelNoFlush)
		}
	}
}

func (b *Builder) linkDriver(e scene.Entity, d *scene.Driver) {
	b.linkDriverData(e, d)
	b.linkDriverVariables(e, d)
	if d.DependsOnTime() {
		b.addRelation(timeSourceKey{}, driverKey(e, d), "TimeSrc -> Driver", 0)
	}
}

// linkDriverData links a driver to the property it writes.
func (b *Builder) linkDriverData(e scene.Entity, d *scene.Driver) {
	if d.Path == "" {
		return
	}
	driver := driverKey(e, d)
	ptr, prop, err := proppath.Resolve(e, d.Path)
	if err != nil {
		b.logger.Warn("Driver path does not resolve.", "id", entityName(e), "path", d.Path, "error", err)
		return
	}

	if ptr.Type == proppath.StructBone {
		b.linkBoneDriver(e, d, ptr, prop)
		return
	}

	if node := b.query.FindNode(ptr, prop, resolver.Entry); node != nil {
		b.addRelation(driver, nodeKey{node}, "Driver -> Driven Property", 0)
	}
	// Driving a nested data-block waits for its copy.
	if ptr.Owner != e {
		b.addRelation(compKey(ptr.Owner, depsnode.NodeCopyOnEval), driver, "Driven CoW -> Driver", depsnode.RelCheckBeforeAdd)
	}
}

// linkBoneDriver fans a driver on a rest bone out to the pose bones of every
// object that uses the armature.
func (b *Builder) linkBoneDriver(e scene.Entity, d *scene.Driver, ptr proppath.Pointer, prop *proppath.Property) {
	driver := driverKey(e, d)
	owner := ptr.Owner
	if ob, ok := owner.(*scene.Object); ok {
		owner = ob.Data
	}
	arm, ok := owner.(*scene.Armature)
	bone, _ := ptr.Data.(*scene.Bone)
	if !ok || bone == nil {
		b.logger.Warn("Driver targets a bone outside an armature.", "id", entityName(e), "path", d.Path)
		return
	}

	opcode := depsnode.OpBoneLocal
	if prop != nil && strings.HasPrefix(prop.Identifier, "bbone_") {
		opcode = depsnode.OpBoneSegments
	}
	for _, n := range b.graph.IDNodes() {
		ob, ok := n.Orig.(*scene.Object)
		if !ok || ob.Data != arm || ob.Pose == nil {
			continue
		}
		if _, ok := ob.Pose.Channel(bone.Name); !ok {
			continue
		}
		b.addRelation(driver, boneKey(ob, bone.Name, opcode), "Arm Bone -> Driver -> Bone", 0)
	}
	if scene.Entity(arm) != e {
		b.addRelation(compKey(arm, depsnode.NodeCopyOnEval), driver, "Driven CoW -> Driver", depsnode.RelCheckBeforeAdd)
	}
}

// linkDriverVariables links the values a driver reads.
func (b *Builder) linkDriverVariables(e scene.Entity, d *scene.Driver) {
	driver := driverKey(e, d)
	var self depsnode.Node
	if d.Path != "" {
		if ptr, prop, err := proppath.Resolve(e, d.Path); err == nil {
			self = b.query.FindNode(ptr, prop, resolver.Entry)
		}
	}

	for _, v := range d.Variables {
		for _, t := range v.Targets {
			if t.ID == nil {
				continue
			}
			ob, isObject := t.ID.(*scene.Object)
			structRef := v.Type != scene.VarSingleProp

			switch {
			case structRef && isObject && ob.Kind == scene.ObjectArmature && t.BoneName != "":
				if _, ok := ob.Pose.Channel(t.BoneName); !ok {
					b.logger.Warn("Driver variable bone not found.", "id", entityName(e), "variable", v.Name, "bone", t.BoneName)
					continue
				}
				from := boneKey(ob, t.BoneName, depsnode.OpBoneDone)
				if sameBoneDependency(from.find(b), self) {
					continue
				}
				b.addRelation(from, driver, "Bone Target -> Driver", 0)

			case structRef:
				// Reading the transform of the driven data-block itself would
				// close a loop.
				if t.ID == e {
					continue
				}
				b.addRelation(opKey(t.ID, depsnode.NodeTransform, depsnode.OpTransformFinal), driver, "Target -> Driver", 0)

			case t.Path != "":
				ptr, prop, err := proppath.Resolve(t.ID, t.Path)
				if err != nil {
					b.logger.Warn("Driver variable path does not resolve.", "id", entityName(e), "variable", v.Name, "path", t.Path, "error", err)
					continue
				}
				node := b.query.FindNode(ptr, prop, resolver.Exit)
				if node == nil {
					b.logger.Debug("Driver variable target has no node.", "id", entityName(e), "variable", v.Name, "path", t.Path)
					continue
				}
				if sameBoneDependency(node, self) {
					continue
				}
				b.addRelation(nodeKey{node}, driver, "RNA Target -> Driver", 0)
			}
		}
	}
}

// sameBoneDependency reports whether from -> to would make a bone depend on
// its own final state.
func sameBoneDependency(from, to depsnode.Node) bool {
	if from == nil || to == nil {
		return false
	}
	opFrom, ok := exitOf(from).(*depsnode.OperationNode)
	if !ok {
		return false
	}
	opTo, ok := entryOf(to).(*depsnode.OperationNode)
	if !ok {
		return false
	}
	if opFrom.Opcode != depsnode.OpBoneDone || opTo.Opcode != depsnode.OpBoneLocal {
		return false
	}
	return opFrom.Owner() == opTo.Owner()
}
