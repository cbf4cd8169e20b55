package transform

import "github.com/cardinal-go/cardinal/constraint"

// Dedup removes structural duplicates, keeping the first occurrence
// of each constraint and the relative order of survivors.
func Dedup(cs []constraint.Constraint) []constraint.Constraint {
	buckets := make(map[uint64][]constraint.Constraint, len(cs))
	out := make([]constraint.Constraint, 0, len(cs))
next:
	for _, c := range cs {
		h := c.Hash()
		for _, prev := range buckets[h] {
			if constraint.Equal(prev, c) {
				continue next
			}
		}
		buckets[h] = append(buckets[h], c)
		out = append(out, c)
	}
	return out
}
