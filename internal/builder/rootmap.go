package builder

import (
	"sort"
	"strings"
)

// RootChainMap records, per bone, the roots of the IK chains the bone is
// part of. A bone may belong to several chains.
type RootChainMap struct {
	roots map[string]map[string]struct{}
}

// NewRootChainMap returns an empty map.
func NewRootChainMap() *RootChainMap {
	return &RootChainMap{roots: make(map[string]map[string]struct{})}
}

// AddBone records that bone belongs to the chain rooted at root.
func (m *RootChainMap) AddBone(bone, root string) {
	set, ok := m.roots[bone]
	if !ok {
		set = make(map[string]struct{})
		m.roots[bone] = set
	}
	set[root] = struct{}{}
}

// Roots returns the chain roots of bone in sorted order.
func (m *RootChainMap) Roots(bone string) []string {
	set := m.roots[bone]
	out := make([]string, 0, len(set))
	for root := range set {
		out = append(out, root)
	}
	sort.Strings(out)
	return out
}

// HasCommonRoot reports whether the two bones share at least one chain root.
// Bones that are in no chain share nothing.
func (m *RootChainMap) HasCommonRoot(a, b string) bool {
	setA, okA := m.roots[a]
	setB, okB := m.roots[b]
	if !okA || !okB {
		return false
	}
	if len(setB) < len(setA) {
		setA, setB = setB, setA
	}
	for root := range setA {
		if _, ok := setB[root]; ok {
			return true
		}
	}
	return false
}

// Len returns the number of bones in the map.
func (m *RootChainMap) Len() int { return len(m.roots) }

func (m *RootChainMap) String() string {
	bones := make([]string, 0, len(m.roots))
	for bone := range m.roots {
		bones = append(bones, bone)
	}
	sort.Strings(bones)
	var sb strings.Builder
	for i, bone := range bones {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(bone + ": [" + strings.Join(m.Roots(bone), " ") + "]")
	}
	return sb.String()
}
