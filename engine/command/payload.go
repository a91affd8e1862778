package command

import "sync"

// maxPooledSlab bounds the slabs kept by the pool so one large texture upload does not pin memory.
const maxPooledSlab = 1 << 20

var slabPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 4096)
		return &b
	},
}

// Payload is a move-only owning container for variable-length command data (buffer contents, pixels).
// Exactly one Payload owns a slab at a time: Take moves ownership out and leaves the source empty,
// and Release returns the slab to the pool. All methods are nil-safe.
type Payload struct {
	slab *[]byte
}

// NewPayload copies src into a pooled slab owned by the returned Payload.
// A nil src yields an empty Payload that owns nothing.
//
// Parameters:
//   - src: the bytes to copy; the caller keeps ownership of src
//
// Returns:
//   - *Payload: the owning payload
func NewPayload(src []byte) *Payload {
	if src == nil {
		return &Payload{}
	}
	slab := slabPool.Get().(*[]byte)
	if cap(*slab) < len(src) {
		*slab = make([]byte, len(src))
	} else {
		*slab = (*slab)[:len(src)]
	}
	copy(*slab, src)
	return &Payload{slab: slab}
}

// Bytes returns the owned bytes. The slice is only valid until Release.
func (p *Payload) Bytes() []byte {
	if p == nil || p.slab == nil {
		return nil
	}
	return *p.slab
}

// Len returns the number of owned bytes.
func (p *Payload) Len() int {
	return len(p.Bytes())
}

// Owned reports whether the payload currently owns a slab.
func (p *Payload) Owned() bool {
	return p != nil && p.slab != nil
}

// Take transfers ownership to a new Payload and leaves p empty.
//
// Returns:
//   - *Payload: the new owner
func (p *Payload) Take() *Payload {
	if p == nil {
		return &Payload{}
	}
	out := &Payload{slab: p.slab}
	p.slab = nil
	return out
}

// Release returns the slab to the pool. Calling Release more than once, or on an empty payload, is a no-op.
func (p *Payload) Release() {
	if p == nil || p.slab == nil {
		return
	}
	slab := p.slab
	p.slab = nil
	if cap(*slab) > maxPooledSlab {
		return
	}
	*slab = (*slab)[:0]
	slabPool.Put(slab)
}
