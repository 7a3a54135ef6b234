package fraglist

// Frag is one surviving fragment after a chain walk, carrying the pool
// node's payload without its link.
type Frag struct {
	Depth float32
	Color uint32
	Ctrl  uint32
}

// Sequence returns the fragment's 16-bit draw sequence.
func (f Frag) Sequence() uint16 { return uint16(f.Ctrl >> 16) }

// BlendOp returns the raw blend-operation field of the control word.
func (f Frag) BlendOp() uint8 { return uint8(f.Ctrl>>8) & 0xF }

// SrcFactor returns the raw source-factor field of the control word.
func (f Frag) SrcFactor() uint8 { return uint8(f.Ctrl>>4) & 0xF }

// DstFactor returns the raw destination-factor field of the control word.
func (f Frag) DstFactor() uint8 { return uint8(f.Ctrl) & 0xF }

// Resolver walks one pixel's chain and produces its fragments in composite
// order: farthest first, ties broken by ascending draw sequence.
//
// Each walk is capped at the pool's per-pixel budget. The budget counts
// every chain node visited, including fragments the depth test rejects.
// Chains list newest first, so a pixel past its budget keeps the most
// recent appends and loses the oldest, even when an older fragment is
// nearer the eye. Renderers have learned to rely on exactly that drop
// order, so it is part of the contract.
//
// A Resolver is not safe for concurrent use; composite workers each carry
// their own.
type Resolver struct {
	reversed bool
	limit    int
	buf      []Frag
}

// NewResolver returns a resolver holding a reusable sort window of limit
// fragments. reversed flips the depth convention so that smaller values
// are farther.
func NewResolver(limit int, reversed bool) *Resolver {
	if limit < 0 {
		limit = 0
	}
	return &Resolver{
		reversed: reversed,
		limit:    limit,
		buf:      make([]Frag, 0, limit),
	}
}

// Resolve walks pixel's chain in p and returns its visible fragments in
// composite order. Fragments strictly farther than opaqueDepth are
// discarded; a fragment at exactly opaqueDepth survives.
//
// The returned slice is valid until the next Resolve call.
func (r *Resolver) Resolve(p *Pool, pixel int, opaqueDepth float32) []Frag {
	r.buf = r.buf[:0]

	visited := 0
	for idx := p.Head(pixel); idx != NullIndex && visited < r.limit; visited++ {
		n := &p.nodes[idx]
		idx = n.Next

		if r.farther(n.Depth, opaqueDepth) {
			// Hidden behind the opaque surface. The visit still spends
			// budget; only the chain's newest nodes are ever considered.
			continue
		}
		r.insert(Frag{Depth: n.Depth, Color: n.Color, Ctrl: n.Ctrl})
	}
	return r.buf
}

// insert places f into the sorted window. Insertion sort holds up well
// here: the window never exceeds the per-pixel budget and typical chains
// are a handful of fragments.
func (r *Resolver) insert(f Frag) {
	buf := append(r.buf, f)
	i := len(buf) - 1
	for i > 0 && r.before(f, buf[i-1]) {
		buf[i] = buf[i-1]
		i--
	}
	buf[i] = f
	r.buf = buf
}

// before reports whether a composites strictly before b: farther away, or
// at equal depth with a lower draw sequence.
func (r *Resolver) before(a, b Frag) bool {
	if a.Depth != b.Depth {
		return r.farther(a.Depth, b.Depth)
	}
	return a.Sequence() < b.Sequence()
}

// farther reports whether depth a is strictly farther from the eye than b
// under the pool's depth convention.
func (r *Resolver) farther(a, b float32) bool {
	if r.reversed {
		return a < b
	}
	return a > b
}
