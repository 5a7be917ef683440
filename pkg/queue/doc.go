// Package queue is the update scheduler.
//
// Updatables (component render passes and watchers) are enqueued with the
// context they belong to and a priority. The scheduler coalesces them until
// the host's next frame, then drains them in document order: ancestor
// contexts before descendant contexts, and within one context lower
// priorities first (watchers before the component render they feed).
//
// # Flush cycle
//
// A flush is an explicit state machine:
//
//	Idle ──frame──▶ Draining ──▶ AwaitingSettle ──yield──▶ Draining (more work)
//	                                            └──yield──▶ RunningCallbacks
//	RunningCallbacks ──▶ AwaitingSettle ──yield──▶ Draining (more work) | Idle
//
// Each entry runs inside a recover boundary; a failing updatable is logged
// and counted and the rest of the batch still runs. An updatable that keeps
// re-enqueueing itself is run at most MaxUpdatesPerFlush times per flush and
// then dropped until the scheduler is idle again.
//
// # Hosts
//
// The scheduler never starts goroutines itself. A [Host] supplies the frame
// clock and the yield point: [ManualHost] is driven explicitly by tests,
// [LoopHost] runs a single UI goroutine with a ticker.
package queue
