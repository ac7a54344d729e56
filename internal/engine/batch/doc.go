// Package batch implements a frame-budgeted job scheduler.
//
// Subsystems (transform sync, visibility, physics, LOD, AI) enqueue deferred units of
// work into one of five priority categories. Once per frame the Controller drains the
// categories in strict priority order, FIFO within each category, until the wall-clock
// budget for the frame is spent. Whatever does not fit stays queued, in its original
// order, for the next frame. Key properties:
//   - Strict priority with FIFO inside a category and no aging
//   - Wall-clock time is the only stopping condition; cost weights are advisory
//   - The budget is checked between jobs, so an in-flight job is never preempted
//   - Per-frame FrameStats snapshots plus cumulative Totals for monitoring
//
// The Controller does no internal locking. Enqueue and Dispatch must be serialized by
// the caller, typically by staging concurrent submissions in a frame.Inbox.
package batch
