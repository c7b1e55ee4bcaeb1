// Package sparse implements level-1 sparse vector operations on device
// buffers.
//
// A sparse vector [SpVec] pairs an int32 index buffer with a value buffer
// of the same length (nnz). A dense vector [DnVec] wraps a value buffer.
// Descriptors do not own their buffers; destroying a descriptor leaves the
// buffers allocated.
//
// Operations are issued through a [Handle] onto its stream and complete
// asynchronously.
package sparse
