package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestMain_Registry(t *testing.T) {
	t.Parallel()
	m := NewMain()
	cube := NewObject("Cube", ObjectMesh)
	mesh := NewMesh("Cube")
	sc := NewScene("Main")
	require.NoError(t, m.Add(sc, cube, mesh))

	got, ok := m.Lookup(IDObject, "Cube")
	require.True(t, ok)
	assert.Same(t, cube, got)
	got, ok = m.Lookup(IDMesh, "Cube")
	require.True(t, ok, "names are unique per type only")
	assert.Same(t, mesh, got)

	err := m.Add(NewObject("Cube", ObjectEmpty))
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, 3, m.Len())

	assert.Equal(t, []*Scene{sc}, m.Scenes())
	assert.Equal(t, []*Object{cube}, m.Objects())

	assert.False(t, m.Contains(cube.CopyForEval()), "a copy is not the registered data-block")
	m.Remove(cube)
	assert.False(t, m.Contains(cube))
	assert.Equal(t, []Entity{sc, mesh}, m.Entities())
	m.Remove(cube)
	assert.Equal(t, 2, m.Len())
}

func TestParseKey(t *testing.T) {
	t.Parallel()
	tests := []struct {
		key      string
		wantType IDType
		wantName string
		wantOK   bool
	}{
		{key: "OB:Cube", wantType: IDObject, wantName: "Cube", wantOK: true},
		{key: "SCE:Main:Shot", wantType: IDScene, wantName: "Main:Shot", wantOK: true},
		{key: "Cube"},
		{key: "OB:"},
		{key: "XX:Cube", wantName: "Cube"},
		{key: "UNKNOWN:Cube", wantName: "Cube"},
	}
	for _, tc := range tests {
		typ, name, ok := ParseKey(tc.key)
		assert.Equal(t, tc.wantOK, ok, tc.key)
		assert.Equal(t, tc.wantType, typ, tc.key)
		assert.Equal(t, tc.wantName, name, tc.key)
	}

	ob := NewObject("Cube", ObjectEmpty)
	typ, name, ok := ParseKey(ob.Key())
	assert.True(t, ok)
	assert.Equal(t, IDObject, typ)
	assert.Equal(t, "Cube", name)
}

func TestCopyForEval(t *testing.T) {
	t.Parallel()
	ob := NewObject("Cube", ObjectMesh)
	ob.Properties = Properties{"weight": cty.NumberIntVal(1)}

	cp, ok := ob.CopyForEval().(*Object)
	require.True(t, ok)
	assert.NotSame(t, ob, cp)
	assert.Equal(t, ob.Name, cp.Name)

	cp.Properties["weight"] = cty.NumberIntVal(2)
	assert.True(t, ob.Properties["weight"].Equals(cty.NumberIntVal(1)).True(), "properties are not shared")

	pa := NewParticleSettings("Dust")
	assert.Same(t, pa, pa.CopyForEval(), "particle settings are never copied")
	assert.False(t, IDParticleSettings.NeedsEvalCopy())
	assert.True(t, IDScene.IsContainer())
}

func TestCollection_AllObjects(t *testing.T) {
	t.Parallel()
	a := NewObject("A", ObjectEmpty)
	b := NewObject("B", ObjectEmpty)
	c := NewObject("C", ObjectEmpty)

	child := NewCollection("Child")
	child.Objects = []*Object{b, a}
	grandchild := NewCollection("Grandchild")
	grandchild.Objects = []*Object{c}
	child.Children = []*Collection{grandchild}

	sc := NewScene("Main")
	sc.Master.Objects = []*Object{a}
	sc.Master.Children = []*Collection{child}

	assert.Equal(t, []*Object{a, b, c}, sc.Master.AllObjects())
}

func TestBuildPose(t *testing.T) {
	t.Parallel()
	arm := NewArmature("Rig")
	root := arm.AddBone("Root", nil)
	mid := arm.AddBone("Mid", root)
	mid.Segments = 4

	pose := BuildPose(arm)
	require.Len(t, pose.Channels, 2)
	rootCh, ok := pose.Channel("Root")
	require.True(t, ok)
	midCh, _ := pose.Channel("Mid")
	assert.Same(t, rootCh, midCh.Parent)
	assert.Same(t, rootCh, midCh.HandlePrev, "segmented bones blend with their parent")
	assert.Nil(t, rootCh.HandlePrev)

	_, ok = pose.Channel("Tip")
	assert.False(t, ok)
}
