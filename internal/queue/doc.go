// Package queue implements the distributed analysis task queue: admission
// control, FIFO dispatch with visibility-timeout leases, idempotent
// acknowledgement, batch submission, and orphan recovery. All shared state
// lives behind the Store interface; the service itself is stateless and safe
// to run in many processes concurrently.
package queue
