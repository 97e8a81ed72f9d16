package scene

import "strings"

// AnimData holds the animation attached to a data-block.
type AnimData struct {
	Action  *Action
	Drivers []*Driver
}

// Action is a reusable set of animation curves.
type Action struct {
	ID
	Curves []*FCurve
}

// NewAction creates an action with curves for the given property paths.
func NewAction(name string, paths ...string) *Action {
	act := &Action{ID: ID{Name: name, Type: IDAction}}
	for _, p := range paths {
		act.Curves = append(act.Curves, &FCurve{Path: p})
	}
	return act
}

func (a *Action) CopyForEval() Entity {
	c := *a
	c.ID = copyID(a.ID)
	return &c
}

// FCurve animates one property path, optionally one array element of it.
type FCurve struct {
	Path  string
	Index int
}

// DriverType selects how driver variables are combined.
type DriverType int

const (
	DriverAverage DriverType = iota
	DriverSum
	DriverMin
	DriverMax
	DriverScripted
)

// Driver computes a property value from other properties.
type Driver struct {
	Path       string
	Index      int
	Type       DriverType
	Expression string
	Variables  []*DriverVariable
}

// DependsOnTime reports whether a scripted driver reads the current frame.
func (d *Driver) DependsOnTime() bool {
	return d.Type == DriverScripted && strings.Contains(d.Expression, "frame")
}

// VariableType is the kind of a driver variable.
type VariableType int

const (
	// VarSingleProp reads one property by path.
	VarSingleProp VariableType = iota
	// VarTransformChannel reads one channel of an object or bone transform.
	VarTransformChannel
	// VarRotationDiff and VarLocationDiff compare two transforms.
	VarRotationDiff
	VarLocationDiff
)

// DriverVariable is a named input of a driver.
type DriverVariable struct {
	Name    string
	Type    VariableType
	Targets []*DriverTarget
}

// DriverTarget addresses the data a variable reads.
type DriverTarget struct {
	ID       Entity
	Path     string
	BoneName string
}
