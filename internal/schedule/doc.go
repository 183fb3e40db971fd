// Package schedule turns an ordered batch of task entries into created
// Taskcluster tasks.
//
// A batch is validated as a whole before the first remote call: labels and
// ids must be unique, every dependency must name an entry that appears
// earlier in the batch, and the dependency graph must be acyclic. Entries
// are then resolved (label dependencies and "<name>" / "<name/path>"
// references become task ids and artifact URLs) and submitted one at a time.
// Each created task is read back from the queue and recorded in a Graph.
//
// Submission stops at the first failure. Tasks created before the failure
// are left in place.
package schedule
