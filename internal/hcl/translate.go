// This file contains the logic for translating HCL schema structs into the
// scene database. Translation runs in two passes: every data-block is created
// and registered first, so that references may point forward and across
// files, then references are wired by name.

package hcl

import (
	"context"
	"fmt"

	"github.com/vk/evalgraph/internal/ctxlog"
	"github.com/vk/evalgraph/internal/scene"
	"github.com/vk/evalgraph/internal/schema"
)

// objectData maps an object kind to the type of data-block it instances.
var objectData = map[scene.ObjectKind]scene.IDType{
	scene.ObjectMesh:     scene.IDMesh,
	scene.ObjectCurve:    scene.IDCurve,
	scene.ObjectLattice:  scene.IDLattice,
	scene.ObjectArmature: scene.IDArmature,
	scene.ObjectCamera:   scene.IDCamera,
}

var driverTypes = map[string]scene.DriverType{
	"":         scene.DriverAverage,
	"average":  scene.DriverAverage,
	"sum":      scene.DriverSum,
	"min":      scene.DriverMin,
	"max":      scene.DriverMax,
	"scripted": scene.DriverScripted,
}

var variableTypes = map[string]scene.VariableType{
	"":              scene.VarSingleProp,
	"single_prop":   scene.VarSingleProp,
	"transforms":    scene.VarTransformChannel,
	"rotation_diff": scene.VarRotationDiff,
	"location_diff": scene.VarLocationDiff,
}

type translator struct {
	ctx  context.Context
	main *scene.Main
}

func newTranslator(ctx context.Context, main *scene.Main) *translator {
	return &translator{ctx: ctx, main: main}
}

// lookup returns the data-block of type t called name. An empty name is not
// a reference and yields the zero value.
func lookup[T scene.Entity](m *scene.Main, t scene.IDType, name string) (T, error) {
	var zero T
	if name == "" {
		return zero, nil
	}
	e, ok := m.Lookup(t, name)
	if !ok {
		return zero, fmt.Errorf("%w: %s %q", ErrUnknownReference, t, name)
	}
	v, ok := e.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s %q has type %T", ErrUnknownReference, t, name, e)
	}
	return v, nil
}

func (t *translator) translate(files []*schema.File) error {
	logger := ctxlog.FromContext(t.ctx)

	for _, f := range files {
		if err := t.create(f); err != nil {
			return err
		}
	}
	logger.Debug("Data-blocks created.", "count", t.main.Len())

	// Wiring order matters only where a pass reads what an earlier one built:
	// poses need the armature bones.
	passes := []func(*schema.File) error{
		t.wireData,
		t.wireArmatures,
		t.wireObjects,
		t.wireContainers,
	}
	for _, pass := range passes {
		for _, f := range files {
			if err := pass(f); err != nil {
				return err
			}
		}
	}
	logger.Debug("Data-block references resolved.")
	return nil
}

// create registers an empty data-block for every block of f.
func (t *translator) create(f *schema.File) error {
	var entities []scene.Entity
	for _, b := range f.Scenes {
		entities = append(entities, scene.NewScene(b.Name))
	}
	for _, b := range f.Collections {
		entities = append(entities, scene.NewCollection(b.Name))
	}
	for _, b := range f.Objects {
		kind := scene.ObjectEmpty
		if b.Kind != "" {
			k, ok := scene.ParseObjectKind(b.Kind)
			if !ok {
				return fmt.Errorf("%w: object %q has unknown kind %q", ErrInvalidValue, b.Name, b.Kind)
			}
			kind = k
		}
		ob := scene.NewObject(b.Name, kind)
		ob.HideViewport = b.HideViewport
		entities = append(entities, ob)
	}
	for _, b := range f.Armatures {
		entities = append(entities, scene.NewArmature(b.Name))
	}
	for _, b := range f.Meshes {
		me := scene.NewMesh(b.Name)
		me.VertexGroups = b.VertexGroups
		me.UVLayers = b.UVLayers
		me.ColorLayers = b.ColorLayers
		entities = append(entities, me)
	}
	for _, b := range f.Curves {
		cu := scene.NewCurve(b.Name)
		if b.Path != nil {
			cu.Path = *b.Path
		}
		if b.Splines > 0 {
			cu.Splines = b.Splines
		}
		entities = append(entities, cu)
	}
	for _, b := range f.Lattices {
		lt := scene.NewLattice(b.Name)
		if b.Points > 0 {
			lt.Points = b.Points
		}
		entities = append(entities, lt)
	}
	for _, b := range f.Cameras {
		entities = append(entities, scene.NewCamera(b.Name))
	}
	for _, b := range f.ShapeKeys {
		entities = append(entities, scene.NewShapeKey(b.Name, b.Blocks...))
	}
	for _, b := range f.Actions {
		act := scene.NewAction(b.Name)
		for _, c := range b.Curves {
			act.Curves = append(act.Curves, &scene.FCurve{Path: c.Path, Index: c.Index})
		}
		entities = append(entities, act)
	}
	for _, b := range f.Particles {
		entities = append(entities, scene.NewParticleSettings(b.Name))
	}
	return t.main.Add(entities...)
}

// wireID fills the parts every data-block header shares.
func (t *translator) wireID(e scene.Entity, props *schema.Properties, anim *schema.Animation) error {
	id := e.DataID()
	p, err := decodeProperties(props)
	if err != nil {
		return fmt.Errorf("in %s: %w", id.Key(), err)
	}
	id.Properties = p

	a, err := t.animation(anim)
	if err != nil {
		return fmt.Errorf("in %s: %w", id.Key(), err)
	}
	id.Anim = a
	return nil
}

func (t *translator) wireData(f *schema.File) error {
	for _, b := range f.Meshes {
		me, _ := lookup[*scene.Mesh](t.main, scene.IDMesh, b.Name)
		key, err := lookup[*scene.ShapeKey](t.main, scene.IDShapeKey, b.ShapeKey)
		if err != nil {
			return fmt.Errorf("mesh %q: %w", b.Name, err)
		}
		me.Key = key
		if err := t.wireID(me, b.Properties, b.Animation); err != nil {
			return err
		}
	}
	for _, b := range f.Curves {
		cu, _ := lookup[*scene.Curve](t.main, scene.IDCurve, b.Name)
		var err error
		if cu.Key, err = lookup[*scene.ShapeKey](t.main, scene.IDShapeKey, b.ShapeKey); err != nil {
			return fmt.Errorf("curve %q: %w", b.Name, err)
		}
		if cu.TaperObject, err = lookup[*scene.Object](t.main, scene.IDObject, b.Taper); err != nil {
			return fmt.Errorf("curve %q taper: %w", b.Name, err)
		}
		if cu.BevelObject, err = lookup[*scene.Object](t.main, scene.IDObject, b.Bevel); err != nil {
			return fmt.Errorf("curve %q bevel: %w", b.Name, err)
		}
		if err := t.wireID(cu, b.Properties, b.Animation); err != nil {
			return err
		}
	}
	for _, b := range f.Lattices {
		lt, _ := lookup[*scene.Lattice](t.main, scene.IDLattice, b.Name)
		key, err := lookup[*scene.ShapeKey](t.main, scene.IDShapeKey, b.ShapeKey)
		if err != nil {
			return fmt.Errorf("lattice %q: %w", b.Name, err)
		}
		lt.Key = key
		if err := t.wireID(lt, b.Properties, b.Animation); err != nil {
			return err
		}
	}
	for _, b := range f.Cameras {
		ca, _ := lookup[*scene.Camera](t.main, scene.IDCamera, b.Name)
		dof, err := lookup[*scene.Object](t.main, scene.IDObject, b.DOFObject)
		if err != nil {
			return fmt.Errorf("camera %q: %w", b.Name, err)
		}
		ca.DOFObject = dof
		if err := t.wireID(ca, b.Properties, b.Animation); err != nil {
			return err
		}
	}
	for _, b := range f.ShapeKeys {
		key, _ := lookup[*scene.ShapeKey](t.main, scene.IDShapeKey, b.Name)
		if err := t.wireID(key, nil, b.Animation); err != nil {
			return err
		}
	}
	return nil
}

func (t *translator) wireArmatures(f *schema.File) error {
	for _, b := range f.Armatures {
		arm, _ := lookup[*scene.Armature](t.main, scene.IDArmature, b.Name)
		for _, bb := range b.Bones {
			if _, ok := arm.Bone(bb.Name); ok {
				return fmt.Errorf("%w: armature %q declares bone %q twice", ErrInvalidValue, b.Name, bb.Name)
			}
			var parent *scene.Bone
			if bb.Parent != "" {
				p, ok := arm.Bone(bb.Parent)
				if !ok {
					return fmt.Errorf("%w: armature %q bone %q has parent %q declared later or not at all", ErrUnknownReference, b.Name, bb.Name, bb.Parent)
				}
				parent = p
			}
			bone := arm.AddBone(bb.Name, parent)
			if bb.Segments > 1 {
				bone.Segments = bb.Segments
			}
			bone.AddParentEndRoll = bb.AddParentEndRoll
		}
		if err := t.wireID(arm, b.Properties, b.Animation); err != nil {
			return err
		}
	}
	return nil
}

func (t *translator) wireObjects(f *schema.File) error {
	for _, b := range f.Objects {
		ob, _ := lookup[*scene.Object](t.main, scene.IDObject, b.Name)
		if err := t.wireObject(ob, b); err != nil {
			return fmt.Errorf("object %q: %w", b.Name, err)
		}
		if err := t.wireID(ob, b.Properties, b.Animation); err != nil {
			return err
		}
	}
	return nil
}

func (t *translator) wireObject(ob *scene.Object, b *schema.Object) error {
	if b.Data != "" {
		typ, ok := objectData[ob.Kind]
		if !ok {
			return fmt.Errorf("%w: %s objects carry no data", ErrInvalidValue, ob.Kind)
		}
		data, err := lookup[scene.Entity](t.main, typ, b.Data)
		if err != nil {
			return err
		}
		ob.Data = data
	}

	parent, err := lookup[*scene.Object](t.main, scene.IDObject, b.Parent)
	if err != nil {
		return fmt.Errorf("parent: %w", err)
	}
	ob.Parent = parent
	if b.ParentType != "" {
		pt, ok := scene.ParseParentType(b.ParentType)
		if !ok {
			return fmt.Errorf("%w: unknown parent type %q", ErrInvalidValue, b.ParentType)
		}
		ob.ParentType = pt
	}
	ob.ParentBone = b.ParentBone

	if ob.Constraints, err = t.constraints(b.Constraints); err != nil {
		return err
	}
	for _, mb := range b.Modifiers {
		md, err := t.modifier(mb)
		if err != nil {
			return err
		}
		ob.Modifiers = append(ob.Modifiers, md)
	}
	return t.wirePose(ob, b)
}

func (t *translator) wirePose(ob *scene.Object, b *schema.Object) error {
	arm := ob.Armature()
	if arm == nil {
		if len(b.PoseBones) > 0 || b.IKSolver != "" {
			return fmt.Errorf("%w: pose settings on an object without armature data", ErrInvalidValue)
		}
		return nil
	}
	ob.Pose = scene.BuildPose(arm)
	switch b.IKSolver {
	case "", "standard":
		ob.Pose.Solver = scene.IKSolverStandard
	case "itasc":
		ob.Pose.Solver = scene.IKSolverITaSC
	default:
		return fmt.Errorf("%w: unknown IK solver %q", ErrInvalidValue, b.IKSolver)
	}

	for _, pb := range b.PoseBones {
		pc, ok := ob.Pose.Channel(pb.Name)
		if !ok {
			return fmt.Errorf("%w: pose bone %q", ErrUnknownReference, pb.Name)
		}
		custom, err := lookup[*scene.Object](t.main, scene.IDObject, pb.CustomShape)
		if err != nil {
			return fmt.Errorf("pose bone %q custom shape: %w", pb.Name, err)
		}
		pc.Custom = custom
		if pc.HandlePrev, err = handle(ob.Pose, pb.HandlePrev, pc.HandlePrev); err != nil {
			return fmt.Errorf("pose bone %q: %w", pb.Name, err)
		}
		if pc.HandleNext, err = handle(ob.Pose, pb.HandleNext, pc.HandleNext); err != nil {
			return fmt.Errorf("pose bone %q: %w", pb.Name, err)
		}
		if pc.Constraints, err = t.constraints(pb.Constraints); err != nil {
			return fmt.Errorf("pose bone %q: %w", pb.Name, err)
		}
		if pc.Properties, err = decodeProperties(pb.Properties); err != nil {
			return fmt.Errorf("pose bone %q: %w", pb.Name, err)
		}
	}
	return nil
}

// handle resolves an explicit B-Bone handle, keeping def when none is named.
func handle(pose *scene.Pose, name string, def *scene.PoseChannel) (*scene.PoseChannel, error) {
	if name == "" {
		return def, nil
	}
	pc, ok := pose.Channel(name)
	if !ok {
		return nil, fmt.Errorf("%w: B-Bone handle %q", ErrUnknownReference, name)
	}
	return pc, nil
}

func (t *translator) constraints(blocks []*schema.Constraint) ([]*scene.Constraint, error) {
	var out []*scene.Constraint
	for _, b := range blocks {
		con, err := t.constraint(b)
		if err != nil {
			return nil, fmt.Errorf("constraint %q: %w", b.Name, err)
		}
		out = append(out, con)
	}
	return out, nil
}

func (t *translator) constraint(b *schema.Constraint) (*scene.Constraint, error) {
	typ, ok := scene.ParseConstraintType(b.Type)
	if !ok {
		return nil, fmt.Errorf("%w: unknown constraint type %q", ErrInvalidValue, b.Type)
	}
	if b.ChainCount < 0 {
		return nil, fmt.Errorf("%w: negative chain count %d", ErrInvalidValue, b.ChainCount)
	}
	con := &scene.Constraint{
		Name:          b.Name,
		Type:          typ,
		Disabled:      b.Disabled,
		UseBBoneShape: b.UseBBoneShape,
	}
	for _, tb := range b.Targets {
		ob, err := lookup[*scene.Object](t.main, scene.IDObject, tb.Object)
		if err != nil {
			return nil, fmt.Errorf("target: %w", err)
		}
		con.Targets = append(con.Targets, &scene.ConstraintTarget{Object: ob, Subtarget: tb.Subtarget})
	}

	switch typ {
	case scene.ConstraintIK:
		ik := &scene.IKSettings{
			ChainCount:    b.ChainCount,
			UseTip:        b.UseTip == nil || *b.UseTip,
			PoleSubtarget: b.PoleSubtarget,
		}
		if len(con.Targets) > 0 {
			ik.Target = con.Targets[0].Object
			ik.Subtarget = con.Targets[0].Subtarget
		}
		pole, err := lookup[*scene.Object](t.main, scene.IDObject, b.PoleTarget)
		if err != nil {
			return nil, fmt.Errorf("pole target: %w", err)
		}
		ik.PoleTarget = pole
		con.IK = ik

	case scene.ConstraintSplineIK:
		curve, err := lookup[*scene.Object](t.main, scene.IDObject, b.Curve)
		if err != nil {
			return nil, fmt.Errorf("curve: %w", err)
		}
		if b.ChainCount < 1 {
			return nil, fmt.Errorf("%w: spline IK needs a chain count of at least 1", ErrInvalidValue)
		}
		con.SplineIK = &scene.SplineIKSettings{Curve: curve, ChainCount: b.ChainCount}
	}
	return con, nil
}

func (t *translator) modifier(b *schema.Modifier) (*scene.Modifier, error) {
	typ, ok := scene.ParseModifierType(b.Type)
	if !ok {
		return nil, fmt.Errorf("%w: modifier %q has unknown type %q", ErrInvalidValue, b.Name, b.Type)
	}
	ob, err := lookup[*scene.Object](t.main, scene.IDObject, b.Object)
	if err != nil {
		return nil, fmt.Errorf("modifier %q: %w", b.Name, err)
	}
	props, err := decodeProperties(b.Properties)
	if err != nil {
		return nil, fmt.Errorf("modifier %q: %w", b.Name, err)
	}
	return &scene.Modifier{Name: b.Name, Type: typ, Object: ob, Properties: props}, nil
}

func (t *translator) wireContainers(f *schema.File) error {
	for _, b := range f.Collections {
		col, _ := lookup[*scene.Collection](t.main, scene.IDCollection, b.Name)
		if err := t.fillCollection(col, b.Objects, b.Children); err != nil {
			return fmt.Errorf("collection %q: %w", b.Name, err)
		}
	}
	for _, b := range f.Scenes {
		sc, _ := lookup[*scene.Scene](t.main, scene.IDScene, b.Name)
		if err := t.fillCollection(sc.Master, b.Objects, b.Collections); err != nil {
			return fmt.Errorf("scene %q: %w", b.Name, err)
		}
		camera, err := lookup[*scene.Object](t.main, scene.IDObject, b.Camera)
		if err != nil {
			return fmt.Errorf("scene %q camera: %w", b.Name, err)
		}
		sc.Camera = camera
		if err := t.wireID(sc, b.Properties, b.Animation); err != nil {
			return err
		}
	}
	return nil
}

func (t *translator) fillCollection(col *scene.Collection, objects, children []string) error {
	for _, name := range objects {
		ob, err := lookup[*scene.Object](t.main, scene.IDObject, name)
		if err != nil {
			return err
		}
		col.Objects = append(col.Objects, ob)
	}
	for _, name := range children {
		child, err := lookup[*scene.Collection](t.main, scene.IDCollection, name)
		if err != nil {
			return err
		}
		if child == col {
			return fmt.Errorf("%w: collection contains itself", ErrInvalidValue)
		}
		col.Children = append(col.Children, child)
	}
	return nil
}

func (t *translator) animation(b *schema.Animation) (*scene.AnimData, error) {
	if b == nil {
		return nil, nil
	}
	act, err := lookup[*scene.Action](t.main, scene.IDAction, b.Action)
	if err != nil {
		return nil, fmt.Errorf("animation: %w", err)
	}
	anim := &scene.AnimData{Action: act}

	for _, db := range b.Drivers {
		typ, ok := driverTypes[db.Type]
		if !ok {
			return nil, fmt.Errorf("%w: driver %q has unknown type %q", ErrInvalidValue, db.Path, db.Type)
		}
		d := &scene.Driver{Path: db.Path, Index: db.Index, Type: typ, Expression: db.Expression}
		for _, vb := range db.Variables {
			v, err := t.variable(vb)
			if err != nil {
				return nil, fmt.Errorf("driver %q: %w", db.Path, err)
			}
			d.Variables = append(d.Variables, v)
		}
		anim.Drivers = append(anim.Drivers, d)
	}
	return anim, nil
}

func (t *translator) variable(b *schema.Variable) (*scene.DriverVariable, error) {
	typ, ok := variableTypes[b.Type]
	if !ok {
		return nil, fmt.Errorf("%w: variable %q has unknown type %q", ErrInvalidValue, b.Name, b.Type)
	}
	v := &scene.DriverVariable{Name: b.Name, Type: typ}
	for _, tb := range b.Targets {
		idType, name, ok := scene.ParseKey(tb.ID)
		if !ok {
			return nil, fmt.Errorf("%w: variable %q target %q is not a <TYPE>:<name> key", ErrInvalidValue, b.Name, tb.ID)
		}
		id, err := lookup[scene.Entity](t.main, idType, name)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", b.Name, err)
		}
		v.Targets = append(v.Targets, &scene.DriverTarget{ID: id, Path: tb.Path, BoneName: tb.Bone})
	}
	return v, nil
}
