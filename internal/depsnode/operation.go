package depsnode

import (
	"context"
	"fmt"
)

// EvalFunc evaluates one operation. A nil EvalFunc makes the operation a
// no-op placeholder that only exists to order other operations.
type EvalFunc func(ctx context.Context) error

// OperationFlag is a state bit of an operation node.
type OperationFlag uint32

const (
	// OpFlagPinned protects the operation from dead-node pruning.
	OpFlagPinned OperationFlag = 1 << iota
	OpFlagEntry
	OpFlagExit
	OpFlagNeedsUpdate
	OpFlagDirectlyModified
)

// OperationNode is the smallest schedulable unit of work.
type OperationNode struct {
	base

	owner  *ComponentNode
	Opcode OperationCode
	// Tag disambiguates same-named operations, e.g. the array index of a
	// driven property. -1 when unused.
	Tag      int
	Evaluate EvalFunc
	Flags    OperationFlag
}

// Owner returns the component the operation belongs to.
func (op *OperationNode) Owner() *ComponentNode { return op.owner }

// IsNoop reports whether the operation has no evaluation callback.
func (op *OperationNode) IsNoop() bool { return op.Evaluate == nil }

// IsPinned reports whether the operation is protected from pruning.
func (op *OperationNode) IsPinned() bool { return op.Flags&OpFlagPinned != 0 }

// Pin protects the operation from pruning.
func (op *OperationNode) Pin() { op.Flags |= OpFlagPinned }

// Identifier is unique within the owning component.
func (op *OperationNode) Identifier() string {
	if op.Tag >= 0 {
		return fmt.Sprintf("%s(%s[%d])", op.Opcode, op.name, op.Tag)
	}
	return fmt.Sprintf("%s(%s)", op.Opcode, op.name)
}

// String returns the identifier qualified by component and data-block.
func (op *OperationNode) String() string {
	if op.owner == nil {
		return op.Identifier()
	}
	return op.owner.String() + "/" + op.Identifier()
}

type operationKey struct {
	opcode OperationCode
	name   string
	tag    int
}

func (k operationKey) less(o operationKey) bool {
	if k.opcode != o.opcode {
		return k.opcode < o.opcode
	}
	if k.name != o.name {
		return k.name < o.name
	}
	return k.tag < o.tag
}

func (op *OperationNode) key() operationKey {
	return operationKey{opcode: op.Opcode, name: op.name, tag: op.Tag}
}
