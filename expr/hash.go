package expr

// Structural hashing in the FNV-1a style. The hash is cached at
// construction so that equality checks and the pipeline's memoization
// tables are cheap on shared subtrees.

const (
	fnvOffset = uint64(14695981039346656037)
	fnvPrime  = uint64(1099511628211)
)

func hashMix(h, x uint64) uint64 {
	for i := 0; i < 8; i++ {
		h ^= x & 0xff
		h *= fnvPrime
		x >>= 8
	}
	return h
}

func hashNode(e *Expr) uint64 {
	h := hashMix(fnvOffset, uint64(e.op))
	switch e.op {
	case OpVar:
		h = hashMix(h, e.v.id)
	case OpConst:
		h = hashMix(h, uint64(e.k))
	default:
		for _, k := range e.kids {
			h = hashMix(h, k.hash)
		}
		for _, d := range e.data {
			h = hashMix(h, uint64(d))
		}
	}
	return h
}

// Hash returns the node's structural hash. Two structurally equal
// expressions have the same hash; collisions are possible and resolved
// by Equal.
func (e *Expr) Hash() uint64 { return e.hash }

// Equal reports value-based structural equality of two expressions.
// nil equals only nil.
func Equal(a, b *Expr) bool { return a.Equal(b) }

// Equal reports value-based structural equality: same operator, same
// payload and pairwise-equal child sequences. Variable leaves compare
// by variable identity, not by name.
func (e *Expr) Equal(o *Expr) bool {
	if e == o {
		return true
	}
	if e == nil || o == nil || e.op != o.op || e.hash != o.hash {
		return false
	}
	switch e.op {
	case OpVar:
		return e.v == o.v
	case OpConst:
		return e.k == o.k
	}
	if len(e.kids) != len(o.kids) || len(e.data) != len(o.data) {
		return false
	}
	for i, d := range e.data {
		if o.data[i] != d {
			return false
		}
	}
	for i, k := range e.kids {
		if !k.Equal(o.kids[i]) {
			return false
		}
	}
	return true
}
