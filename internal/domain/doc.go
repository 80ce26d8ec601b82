// Package domain defines the analysis task, batch, and lease types together
// with their lifecycle rules. It has no dependencies on storage or transport.
package domain
