// Package taskcluster is a thin client for the two Taskcluster services a
// decision task talks to through the worker's taskcluster proxy: the queue
// (createTask and task read-back) and the secrets service.
//
// Nothing here retries. A failed call is returned to the caller, which aborts
// the decision run and leaves already-created tasks in place.
package taskcluster
