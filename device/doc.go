// Package device provides a CPU-backed accelerator model: a device context
// that owns device buffers, in-order execution streams, and 2D/3D kernel
// grid launches.
//
// The model mirrors how accelerator runtimes are driven: the host issues
// asynchronous copies, library calls, and kernel launches onto a stream,
// and calls [Stream.Synchronize] before reading any device-computed result
// back into host memory. Errors raised on a stream are sticky: once an
// operation fails, later operations on the same stream are skipped and
// every synchronization reports the first failure.
//
// Handles are explicit values. A [Context] is opened with [Open] and must be
// closed with [Context.Close], which also releases any buffers and streams
// still alive.
package device
