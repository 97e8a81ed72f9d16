// Package proppath parses data paths such as
//
//	pose.bones["Arm.L"].constraints["IK"].chain_count
//	modifiers["Subdivision"].levels
//	["custom_prop"]
//
// and resolves them against a scene entity into a Pointer (the struct that
// owns the property) plus the Property itself. It is the reflection layer the
// resolver queries; it knows nothing about the evaluation graph.
package proppath
