// Package pool bounds per-file transfer concurrency and reuses copy buffers
// across transfers.
package pool
