package linmo

// Allocator and Pipe are the collaborator contracts of spec §1. Allocator
// has no implementation in this package; Pipe has one, the pipe type
// below. A hosted Go port has no need for a
// hand-rolled heap allocator — the runtime's own allocator already serves
// that role — so Allocator exists only so a future memory-constrained HAL
// has a named seam to plug a pool/arena allocator into, matching the
// reference's `kalloc`/`kfree` pair.
type Allocator interface {
	Alloc(size int) ([]byte, error)
	Free(buf []byte)
}

// Pipe is the byte-oriented IPC contract (spec §1's "byte-oriented pipe
// IPC"). Reads and writes block per the same suspension-point discipline
// as every other kernel wait (spec §5): a pipe operation that cannot
// complete immediately parks the calling task exactly like a semaphore
// wait, and is woken the same way.
type Pipe interface {
	Read(tk *Task, p []byte) (n int, err error)
	Write(tk *Task, p []byte) (n int, err error)
	Close() error
}

// pipe is the one concrete Pipe: a fixed-capacity byte ring guarded by a
// mutex and two semaphores (empty/full slot counts), the same structure
// the producer/consumer scenario in spec §8 builds by hand out of raw
// primitives — wired here as a ready-made collaborator so application
// code doesn't have to.
type pipe struct {
	k        *Kernel
	buf      []byte
	head     int
	tail     int
	size     int
	mu       *Mutex
	notEmpty *Semaphore
	notFull  *Semaphore
	closed   bool
}

// NewPipe creates a Pipe backed by a capacity-byte ring.
func (k *Kernel) NewPipe(capacity int) (Pipe, error) {
	if capacity <= 0 {
		return nil, asError(ErrPipeAlloc)
	}
	notEmpty, err := k.NewSemaphore(capacity, 0)
	if err != nil {
		return nil, asError(ErrPipeAlloc)
	}
	notFull, err := k.NewSemaphore(capacity, int32(capacity))
	if err != nil {
		return nil, asError(ErrPipeAlloc)
	}
	return &pipe{
		k:        k,
		buf:      make([]byte, capacity),
		mu:       k.NewMutex(),
		notEmpty: notEmpty,
		notFull:  notFull,
	}, nil
}

func (p *pipe) Read(tk *Task, out []byte) (int, error) {
	n := 0
	for n < len(out) {
		if err := p.notEmpty.Wait(tk); err != nil {
			return n, err
		}
		if err := p.mu.Lock(tk); err != nil {
			return n, err
		}
		out[n] = p.buf[p.tail]
		p.tail = (p.tail + 1) % len(p.buf)
		p.size--
		if err := p.mu.Unlock(tk); err != nil {
			return n, err
		}
		if err := p.notFull.Signal(tk); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (p *pipe) Write(tk *Task, in []byte) (int, error) {
	n := 0
	for n < len(in) {
		if err := p.notFull.Wait(tk); err != nil {
			return n, err
		}
		if err := p.mu.Lock(tk); err != nil {
			return n, err
		}
		p.buf[p.head] = in[n]
		p.head = (p.head + 1) % len(p.buf)
		p.size++
		if err := p.mu.Unlock(tk); err != nil {
			return n, err
		}
		if err := p.notEmpty.Signal(tk); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (p *pipe) Close() error {
	p.k.mu.Lock()
	p.closed = true
	p.k.mu.Unlock()
	return nil
}
