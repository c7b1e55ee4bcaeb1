// Package transform adapts external FFT libraries to batched 2D
// real-to-complex (R2C) and complex-to-real (C2R) plans that execute on a
// device stream.
//
// Layout is row-major with the last dimension contiguous. A real sample
// grid of nx×ny produces nx×(ny/2+1) packed spectrum bins per batch; the
// redundant half of the last dimension is implied by Hermitian symmetry.
//
// Both directions are unnormalized: a forward transform followed by an
// inverse transform scales the data by nx·ny. Callers normalize explicitly
// (see package dsp/scale).
//
// The transforms themselves are provided by an [Engine]:
//
//   - "algofft": github.com/MeKo-Christian/algo-fft, one complex plan per axis.
//   - "godsp": github.com/mjibson/go-dsp/fft, used as a reference engine.
package transform
