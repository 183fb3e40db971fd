// Package decision decides which tasks a decision run schedules.
//
// The standalone driver maps a command (pull-request, master, landed,
// release) onto the fixed task sets built by taskbuilder; task ids are
// assigned up front so later tasks can name earlier ones directly. Graph
// mode derives taskgraph-style parameters from the triggering event and
// selects task declarations with package kinds.
package decision
