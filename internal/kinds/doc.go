// Package kinds loads task declarations written in HCL and turns the ones a
// decision run targets into an ordered batch of task entries.
//
// A declaration names its dependencies by label and carries exactly one
// worker block (docker, signing, pushapk or email) that selects how the
// task descriptor is built:
//
//	task "sign" {
//	  run_on       = ["github-release"]
//	  dependencies = { build = "build" }
//	  worker "signing" {
//	    upstream = "build"
//	    paths    = ["public/build/target.apk"]
//	    formats  = ["autograph_apk"]
//	  }
//	}
//
// Attribute expressions may use the run variables head_repository, head_rev,
// head_ref, head_tag, owner, release_type, tasks_for and level.
package kinds
