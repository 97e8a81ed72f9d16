package scene

// Collection groups objects and nested collections.
type Collection struct {
	ID
	Objects  []*Object
	Children []*Collection
}

// NewCollection creates an empty collection.
func NewCollection(name string) *Collection {
	return &Collection{ID: ID{Name: name, Type: IDCollection}}
}

func (c *Collection) CopyForEval() Entity {
	out := *c
	out.ID = copyID(c.ID)
	return &out
}

// AllObjects returns the objects of the collection and its children,
// each once, in depth-first order.
func (c *Collection) AllObjects() []*Object {
	seen := make(map[*Object]struct{})
	var out []*Object
	var walk func(*Collection)
	walk = func(col *Collection) {
		for _, ob := range col.Objects {
			if _, ok := seen[ob]; ok {
				continue
			}
			seen[ob] = struct{}{}
			out = append(out, ob)
		}
		for _, child := range col.Children {
			walk(child)
		}
	}
	walk(c)
	return out
}

// Scene is the root of everything that gets evaluated.
type Scene struct {
	ID
	Master *Collection
	Camera *Object
}

// NewScene creates a scene with an empty master collection.
func NewScene(name string) *Scene {
	return &Scene{
		ID:     ID{Name: name, Type: IDScene},
		Master: NewCollection(name + ".master"),
	}
}

func (s *Scene) CopyForEval() Entity {
	out := *s
	out.ID = copyID(s.ID)
	return &out
}
