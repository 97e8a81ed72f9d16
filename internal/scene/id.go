package scene

import (
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// IDType is the kind of a data-block.
type IDType int

const (
	IDUnknown IDType = iota
	IDObject
	IDArmature
	IDMesh
	IDCurve
	IDLattice
	IDCamera
	IDAction
	IDShapeKey
	IDCollection
	IDScene
	IDParticleSettings
)

var idTypeNames = map[IDType]string{
	IDUnknown:          "UNKNOWN",
	IDObject:           "OB",
	IDArmature:         "AR",
	IDMesh:             "ME",
	IDCurve:            "CU",
	IDLattice:          "LT",
	IDCamera:           "CA",
	IDAction:           "AC",
	IDShapeKey:         "KE",
	IDCollection:       "GR",
	IDScene:            "SCE",
	IDParticleSettings: "PA",
}

// String returns the two or three letter code of the type.
func (t IDType) String() string {
	if name, ok := idTypeNames[t]; ok {
		return name
	}
	return idTypeNames[IDUnknown]
}

// ParseIDType maps a type code such as "OB" to its value.
func ParseIDType(code string) (IDType, bool) {
	for t, name := range idTypeNames {
		if name == code && t != IDUnknown {
			return t, true
		}
	}
	return IDUnknown, false
}

// ParseKey splits a "<TYPE>:<name>" key as produced by ID.Key.
func ParseKey(key string) (IDType, string, bool) {
	code, name, ok := strings.Cut(key, ":")
	if !ok || name == "" {
		return IDUnknown, "", false
	}
	t, ok := ParseIDType(code)
	return t, name, ok
}

// IsContainer reports whether data-blocks of this type own references to
// other data-blocks whose evaluated copies they may release on teardown.
func (t IDType) IsContainer() bool {
	return t == IDScene || t == IDCollection
}

// NeedsEvalCopy reports whether the evaluator works on a copy-on-write mirror
// of data-blocks of this type.
func (t IDType) NeedsEvalCopy() bool {
	switch t {
	case IDUnknown, IDParticleSettings:
		return false
	default:
		return true
	}
}

// Properties are user-defined (custom) properties attached to a data-block or
// a pose channel.
type Properties map[string]cty.Value

// Has reports whether a custom property with the given name exists.
func (p Properties) Has(name string) bool {
	_, ok := p[name]
	return ok
}

// ID is the header embedded in every data-block.
type ID struct {
	Name       string
	Type       IDType
	Properties Properties
	Anim       *AnimData
}

// DataID returns the header itself. Embedding types inherit it, which makes
// every data-block satisfy most of Entity.
func (id *ID) DataID() *ID { return id }

// Key returns "<TYPE>:<name>", unique within a Main.
func (id *ID) Key() string {
	return id.Type.String() + ":" + id.Name
}

// Entity is any addressable data-block.
type Entity interface {
	DataID() *ID
	// CopyForEval returns a shallow, independent copy used as the
	// copy-on-write mirror of the entity.
	CopyForEval() Entity
}

// copyID clones the header so that the copy has its own identity.
func copyID(id ID) ID {
	out := id
	if id.Properties != nil {
		out.Properties = make(Properties, len(id.Properties))
		for k, v := range id.Properties {
			out.Properties[k] = v
		}
	}
	return out
}
