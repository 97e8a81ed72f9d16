// Package scene holds the authoritative scene database that the dependency
// graph is built from: objects, skeletons, constraints, geometry data-blocks,
// animation data and the containers (collections, scenes) grouping them.
//
// Every data-block embeds an ID. The address of that embedded ID is the
// entity's identity; evaluated copies made by CopyForEval carry their own ID
// and are therefore never mistaken for the original.
//
// The package is pure data. It knows nothing about graph nodes and performs
// no evaluation; loaders (see internal/hcl) populate it and the builder reads it.
package scene
