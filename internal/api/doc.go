// Package api exposes the task queue over HTTP: task and batch submission,
// status lookup, cancellation, and queue statistics. Handlers decode and
// validate requests, delegate to the queue service, and map domain errors
// to safe HTTP responses.
package api
