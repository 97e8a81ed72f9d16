// Package hcl provides the HCL implementation of the config.Loader
// interface. It discovers scene files, decodes them with gohcl into the
// schema package's block structures and translates those into a scene
// database, resolving references between data-blocks by name.
//
// A minimal scene file:
//
//	scene "Main" {
//	  objects = ["Rig"]
//	}
//
//	armature "RigData" {
//	  bone "Root" {}
//	  bone "Arm" { parent = "Root" }
//	}
//
//	object "Rig" {
//	  kind = "armature"
//	  data = "RigData"
//
//	  pose_bone "Arm" {
//	    constraint "IK" {
//	      type = "ik"
//	      target { object = "Target" }
//	    }
//	  }
//	}
package hcl
