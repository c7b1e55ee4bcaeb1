// Package scale provides elementwise scaling kernels launched on a device
// stream.
//
// [BandMask] scales a frequency band of a packed complex spectrum and
// [Normalize] rescales a real grid, typically by 1/(nx·ny) after an
// unnormalized inverse transform. Both treat their buffer as batch
// consecutive Width×Height row-major planes and advance through the batch
// along grid z. Work-items outside the declared extent never write.
package scale
