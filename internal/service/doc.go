// Package service runs maintenance tasks of the server on a schedule.
//
// The Scheduler owns a gocron scheduler and one Task per configured schedule.
// A Task is a named action: an operation of package ops, or a plugin run as
// a script through the process wide script guard.
//
// Data flow:
//
//	Scheduler             gocron                  Task{name}
//	    |                    |                       |
//	Do() -> register ------->|                       |
//	    | Start() ---------->| cron/duration fires ->| run(ctx) -> ops / guard
//	    |                    |                       |
//	    |<------------------ Result -----------------|
//
// Invariants:
//   - At most one run per Task at a time; a tick which finds it still
//     running is skipped.
//   - Script tasks share the guard with every other script run of the
//     process, a collision is rejected, never queued.
//   - Each run produces exactly one Result.
//   - Do returns once ctx is done and gocron has shut down.
package service
