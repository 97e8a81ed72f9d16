package depsnode

import "fmt"

// Node is implemented by every graph element that can take part in a
// relation. The unexported method seals the interface to this package.
type Node interface {
	Name() string
	Type() NodeType
	Class() NodeClass
	Inlinks() []*Relation
	Outlinks() []*Relation
	CustomFlags() int
	SetCustomFlags(flags int)
	String() string

	core() *base
}

// base carries the state shared by all node kinds.
type base struct {
	name     string
	typ      NodeType
	inlinks  []*Relation
	outlinks []*Relation
	custom   int
}

func (b *base) Name() string             { return b.name }
func (b *base) Type() NodeType           { return b.typ }
func (b *base) Class() NodeClass         { return TypeInfo(b.typ).Class }
func (b *base) Inlinks() []*Relation     { return b.inlinks }
func (b *base) Outlinks() []*Relation    { return b.outlinks }
func (b *base) CustomFlags() int         { return b.custom }
func (b *base) SetCustomFlags(flags int) { b.custom = flags }
func (b *base) core() *base              { return b }

func (b *base) String() string {
	return fmt.Sprintf("%s(%s)", TypeInfo(b.typ).Name, b.name)
}

// TimeSourceNode is the generic node every time-dependent operation hangs
// off.
type TimeSourceNode struct {
	base
}
