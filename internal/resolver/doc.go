// Package resolver maps a property access (a proppath.Pointer plus an
// optional proppath.Property) to the graph node the access binds to.
//
// Rules are tried from the most specific to the catch-all, so every access
// to an entity yields either a valid Identifier or, when no entity is
// involved, an invalid one. A Query is created per build pass; the
// per-entity side tables it caches are dropped with it.
package resolver
