package scene

// Mesh is polygon geometry data.
type Mesh struct {
	ID
	VertexGroups []string
	UVLayers     []string
	ColorLayers  []string
	Key          *ShapeKey
}

// NewMesh creates empty mesh data.
func NewMesh(name string) *Mesh {
	return &Mesh{ID: ID{Name: name, Type: IDMesh}}
}

func (m *Mesh) CopyForEval() Entity {
	c := *m
	c.ID = copyID(m.ID)
	return &c
}

// ShapeKey is the set of shape key blocks of a mesh, curve or lattice.
type ShapeKey struct {
	ID
	Blocks []*KeyBlock
}

// NewShapeKey creates a shape key data-block.
func NewShapeKey(name string, blocks ...string) *ShapeKey {
	k := &ShapeKey{ID: ID{Name: name, Type: IDShapeKey}}
	for _, b := range blocks {
		k.Blocks = append(k.Blocks, &KeyBlock{Name: b})
	}
	return k
}

func (k *ShapeKey) CopyForEval() Entity {
	c := *k
	c.ID = copyID(k.ID)
	return &c
}

// Block returns the key block with the given name.
func (k *ShapeKey) Block(name string) (*KeyBlock, bool) {
	for _, b := range k.Blocks {
		if b.Name == name {
			return b, true
		}
	}
	return nil, false
}

// KeyBlock is a single shape key.
type KeyBlock struct {
	Name string
}

// Curve is spline geometry data.
type Curve struct {
	ID
	// Path enables the evaluated path used by follow-path style constraints.
	Path    bool
	Splines int
	// TaperObject and BevelObject are optional objects whose geometry shapes the curve.
	TaperObject *Object
	BevelObject *Object
	Key         *ShapeKey
}

// NewCurve creates curve data.
func NewCurve(name string) *Curve {
	return &Curve{ID: ID{Name: name, Type: IDCurve}, Path: true, Splines: 1}
}

func (cu *Curve) CopyForEval() Entity {
	c := *cu
	c.ID = copyID(cu.ID)
	return &c
}

// Lattice is deformation cage data.
type Lattice struct {
	ID
	Points int
	Key    *ShapeKey
}

// NewLattice creates lattice data.
func NewLattice(name string) *Lattice {
	return &Lattice{ID: ID{Name: name, Type: IDLattice}, Points: 8}
}

func (lt *Lattice) CopyForEval() Entity {
	c := *lt
	c.ID = copyID(lt.ID)
	return &c
}

// Camera is camera data.
type Camera struct {
	ID
	// DOFObject is the optional focus object.
	DOFObject *Object
}

// NewCamera creates camera data.
func NewCamera(name string) *Camera {
	return &Camera{ID: ID{Name: name, Type: IDCamera}}
}

func (ca *Camera) CopyForEval() Entity {
	c := *ca
	c.ID = copyID(ca.ID)
	return &c
}

// ParticleSettings are shared particle system settings. They are never
// copied for evaluation.
type ParticleSettings struct {
	ID
}

// NewParticleSettings creates particle settings.
func NewParticleSettings(name string) *ParticleSettings {
	return &ParticleSettings{ID: ID{Name: name, Type: IDParticleSettings}}
}

func (pa *ParticleSettings) CopyForEval() Entity { return pa }

// GeometryKey returns the shape key attached to geometry data, if any.
func GeometryKey(data Entity) *ShapeKey {
	switch d := data.(type) {
	case *Mesh:
		return d.Key
	case *Curve:
		return d.Key
	case *Lattice:
		return d.Key
	}
	return nil
}
