package buffer

// Complex holds complex spectrum bins.
type Complex struct {
	bins []complex128
}

// NewComplex returns a zero-filled Complex buffer of the given length.
func NewComplex(length int) *Complex {
	if length < 0 {
		length = 0
	}
	return &Complex{bins: make([]complex128, length)}
}

// Bins returns the underlying slice.
func (c *Complex) Bins() []complex128 {
	return c.bins
}

// Len returns the number of bins.
func (c *Complex) Len() int {
	return len(c.bins)
}

// Resize sets the length to n and zeroes every bin.
func (c *Complex) Resize(n int) {
	if n < 0 {
		n = 0
	}
	if n <= cap(c.bins) {
		c.bins = c.bins[:n]
	} else {
		c.bins = make([]complex128, n)
	}
	clear(c.bins)
}

// Copy returns a deep copy.
func (c *Complex) Copy() *Complex {
	s := make([]complex128, len(c.bins))
	copy(s, c.bins)
	return &Complex{bins: s}
}
