// Package buffer manages host-side sample and spectrum buffers.
//
// [Buffer] holds real samples, [Complex] holds complex spectrum bins, and
// [Manager] hands both out from sync.Pool-backed pools so repeated runs
// reuse their backing arrays. Buffers are plain slices underneath; use
// Samples() or Bins() to pass them to device copies and reporters.
package buffer
