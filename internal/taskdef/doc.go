// Package taskdef defines the task descriptors a decision task produces and
// submits to the Taskcluster queue.
//
// A Task is the queue's wire representation of one unit of remote work. An
// Entry wraps a Task with the decision-side bookkeeping that never reaches the
// queue: a human-readable label, free-form attributes used for target
// filtering, and label-keyed dependencies that are resolved to task ids at
// submission time.
//
// Descriptors are built once per decision run, submitted once, and never
// mutated afterwards.
package taskdef
