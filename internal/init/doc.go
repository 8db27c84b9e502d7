// Package init records how a workspace was provisioned.
//
// This package handles reading and writing the .specify/init.yml file,
// which tracks the agent, script type, and template release that
// `specify init` used, so later runs and `specify check` can report it.
package init
