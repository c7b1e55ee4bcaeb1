// Package spectrum provides helpers over packed complex spectra produced by
// package transform: per-bin magnitude, power and phase, and the signal
// energy implied by a half spectrum.
package spectrum
