package device

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sys/cpu"

	"github.com/cwbudde/algo-accel/internal/logger"
)

// Backend names accepted by [Open].
const (
	Host = "host"
	CUDA = "cuda"
	Auto = "auto"
)

// Info describes a device.
type Info struct {
	Name        string
	Backend     string
	Index       int
	Arch        string
	Workers     int
	MemoryLimit int64
	Features    []string
}

type options struct {
	index       int
	workers     int
	memoryLimit int64
	log         logger.Logger
}

// Option configures [Open].
type Option func(*options)

// WithDeviceIndex selects the device ordinal (0 = default).
func WithDeviceIndex(index int) Option {
	return func(o *options) {
		o.index = index
	}
}

// WithWorkers sets how many goroutines execute the blocks of a kernel grid.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithMemoryLimit caps the total bytes of live device allocations.
// Zero means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		if bytes >= 0 {
			o.memoryLimit = bytes
		}
	}
}

// WithLogger sets the logger used for resource lifecycle events.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Normalize validates and canonicalizes a backend name.
func Normalize(name string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(name))
	switch backend {
	case "", Auto, Host, "cpu":
		return Host, nil
	case CUDA:
		return CUDA, nil
	default:
		return "", fmt.Errorf("device: unknown backend %q (expected auto, host, or cuda): %w", name, ErrInvalidValue)
	}
}

// Devices lists the devices exposed by backend.
func Devices(backend string) ([]Info, error) {
	b, err := Normalize(backend)
	if err != nil {
		return nil, err
	}
	if b != Host {
		return nil, fmt.Errorf("device: backend %q unavailable in this build: %w", b, ErrNotSupported)
	}
	return []Info{hostInfo(0, runtime.NumCPU(), 0)}, nil
}

// Context owns device buffers and streams for one device.
type Context struct {
	info    Info
	log     logger.Logger
	workers int
	limit   int64

	mu      sync.Mutex
	used    int64
	live    map[*allocation]struct{}
	streams map[*Stream]struct{}
	closed  bool
}

// Open creates a context on the selected backend and device.
func Open(backend string, opts ...Option) (*Context, error) {
	b, err := Normalize(backend)
	if err != nil {
		return nil, err
	}
	if b != Host {
		return nil, fmt.Errorf("device: backend %q unavailable in this build: %w", b, ErrNotSupported)
	}

	o := options{
		workers: runtime.NumCPU(),
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.index != 0 {
		return nil, fmt.Errorf("device: device index %d out of range: %w", o.index, ErrInvalidValue)
	}

	c := &Context{
		info:    hostInfo(o.index, o.workers, o.memoryLimit),
		log:     o.log.With("component", "device"),
		workers: o.workers,
		limit:   o.memoryLimit,
		live:    make(map[*allocation]struct{}),
		streams: make(map[*Stream]struct{}),
	}
	c.log.Debug("context opened", "device", c.info.Name, "workers", c.workers)
	return c, nil
}

// Info returns the device description.
func (c *Context) Info() Info {
	return c.info
}

// MemoryUsage reports live allocated bytes and the configured limit.
func (c *Context) MemoryUsage() (used, limit int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used, c.limit
}

// LiveBuffers reports how many buffers have not been freed.
func (c *Context) LiveBuffers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live)
}

// Close drains and destroys remaining streams and frees remaining buffers.
// Closing twice is a no-op.
func (c *Context) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	streams := make([]*Stream, 0, len(c.streams))
	for s := range c.streams {
		streams = append(streams, s)
	}
	c.mu.Unlock()

	for _, s := range streams {
		_ = s.Close()
	}

	c.mu.Lock()
	leaked := len(c.live)
	for a := range c.live {
		a.drop()
	}
	c.live = map[*allocation]struct{}{}
	c.used = 0
	c.mu.Unlock()

	if leaked > 0 {
		c.log.Debug("released outstanding buffers", "count", leaked)
	}
	c.log.Debug("context closed")
	return nil
}

func (c *Context) reserve(bytes int64, drop func()) (*allocation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, fmt.Errorf("device: allocate on closed context: %w", ErrInvalidHandle)
	}
	if c.limit > 0 && c.used+bytes > c.limit {
		return nil, fmt.Errorf("device: allocate %d bytes (%d of %d in use): %w", bytes, c.used, c.limit, ErrMemoryAllocation)
	}
	a := &allocation{ctx: c, bytes: bytes, drop: drop}
	c.used += bytes
	c.live[a] = struct{}{}
	return a, nil
}

func (c *Context) release(a *allocation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.live[a]; !ok {
		return fmt.Errorf("device: free of released buffer: %w", ErrInvalidHandle)
	}
	delete(c.live, a)
	c.used -= a.bytes
	a.drop()
	return nil
}

func (c *Context) track(s *Stream) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("device: stream on closed context: %w", ErrInvalidHandle)
	}
	c.streams[s] = struct{}{}
	return nil
}

func (c *Context) untrack(s *Stream) {
	c.mu.Lock()
	delete(c.streams, s)
	c.mu.Unlock()
}

func hostInfo(index, workers int, limit int64) Info {
	return Info{
		Name:        fmt.Sprintf("Host (%s)", runtime.GOARCH),
		Backend:     Host,
		Index:       index,
		Arch:        runtime.GOARCH,
		Workers:     workers,
		MemoryLimit: limit,
		Features:    hostFeatures(),
	}
}

func hostFeatures() []string {
	var f []string
	add := func(ok bool, name string) {
		if ok {
			f = append(f, name)
		}
	}
	add(cpu.X86.HasSSE41, "sse4.1")
	add(cpu.X86.HasAVX, "avx")
	add(cpu.X86.HasAVX2, "avx2")
	add(cpu.X86.HasFMA, "fma")
	add(cpu.X86.HasAVX512F, "avx512f")
	add(cpu.ARM64.HasFP, "fp")
	add(cpu.ARM64.HasASIMD, "asimd")
	return f
}
