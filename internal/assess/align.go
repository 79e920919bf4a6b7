package assess

import (
	"fmt"
	"sort"
	"strings"
)

// OpTag identifies the kind of an edit-script unit.
type OpTag int

const (
	// OpEqual pairs ref[I1:I2] with rec[J1:J2] word for word.
	OpEqual OpTag = iota
	// OpReplace substitutes rec[J1:J2] for ref[I1:I2].
	OpReplace
	// OpDelete drops ref[I1:I2]; J1 == J2.
	OpDelete
	// OpInsert adds rec[J1:J2]; I1 == I2.
	OpInsert
)

// String returns the lowercase name of the tag.
func (t OpTag) String() string {
	switch t {
	case OpEqual:
		return "equal"
	case OpReplace:
		return "replace"
	case OpDelete:
		return "delete"
	case OpInsert:
		return "insert"
	default:
		return fmt.Sprintf("OpTag(%d)", int(t))
	}
}

// Opcode is one unit of the edit script mapping the reference sequence onto
// the recognized one. Ranges are half-open.
type Opcode struct {
	Tag    OpTag
	I1, I2 int
	J1, J2 int
}

// block is a matching run: a[i:i+size] == b[j:j+size].
type block struct {
	i, j, size int
}

// popularMin is the sequence length from which very frequent recognized words
// stop seeding matches.
const popularMin = 200

// Align computes the edit script between ref and rec, comparing words
// case-insensitively. It finds the longest matching run of words, then
// recurses on the parts left and right of it; among equally long runs the
// one earliest in ref, then in rec, wins. The ops cover both sequences in
// order, exactly once. Two empty sequences give no ops.
func Align(ref, rec []string) []Opcode {
	a := lowerAll(ref)
	b := lowerAll(rec)
	m := newMatcher(a, b)
	return m.opcodes()
}

func lowerAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(w)
	}
	return out
}

type matcher struct {
	a, b []string
	b2j  map[string][]int
}

func newMatcher(a, b []string) *matcher {
	m := &matcher{a: a, b: b, b2j: make(map[string][]int)}
	for j, w := range b {
		m.b2j[w] = append(m.b2j[w], j)
	}
	if n := len(b); n >= popularMin {
		limit := n/100 + 1
		for w, idx := range m.b2j {
			if len(idx) > limit {
				delete(m.b2j, w)
			}
		}
	}
	return m
}

// longestMatch returns the longest run a[i:i+k] == b[j:j+k] within
// a[alo:ahi] and b[blo:bhi]. Ties go to the smallest i, then smallest j.
func (m *matcher) longestMatch(alo, ahi, blo, bhi int) block {
	best := block{i: alo, j: blo}
	// j2len[j] is the length of the match ending at a[i-1], b[j].
	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > best.size {
				best = block{i: i - k + 1, j: j - k + 1, size: k}
			}
		}
		j2len = next
	}

	// Popular words never seed a match but may still extend one.
	for best.i > alo && best.j > blo && m.a[best.i-1] == m.b[best.j-1] {
		best.i, best.j, best.size = best.i-1, best.j-1, best.size+1
	}
	for best.i+best.size < ahi && best.j+best.size < bhi && m.a[best.i+best.size] == m.b[best.j+best.size] {
		best.size++
	}
	return best
}

// matchingBlocks returns the non-overlapping matching runs in order,
// adjacent runs merged, terminated by the zero-length block (len(a), len(b)).
func (m *matcher) matchingBlocks() []block {
	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(m.a), 0, len(m.b)}}
	var found []block
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		x := m.longestMatch(s.alo, s.ahi, s.blo, s.bhi)
		if x.size == 0 {
			continue
		}
		found = append(found, x)
		if s.alo < x.i && s.blo < x.j {
			queue = append(queue, span{s.alo, x.i, s.blo, x.j})
		}
		if x.i+x.size < s.ahi && x.j+x.size < s.bhi {
			queue = append(queue, span{x.i + x.size, s.ahi, x.j + x.size, s.bhi})
		}
	}
	sort.Slice(found, func(p, q int) bool {
		if found[p].i != found[q].i {
			return found[p].i < found[q].i
		}
		return found[p].j < found[q].j
	})

	merged := make([]block, 0, len(found)+1)
	for _, x := range found {
		if n := len(merged); n > 0 {
			last := &merged[n-1]
			if last.i+last.size == x.i && last.j+last.size == x.j {
				last.size += x.size
				continue
			}
		}
		merged = append(merged, x)
	}
	return append(merged, block{i: len(m.a), j: len(m.b)})
}

func (m *matcher) opcodes() []Opcode {
	var ops []Opcode
	i, j := 0, 0
	for _, x := range m.matchingBlocks() {
		var tag OpTag
		switch {
		case i < x.i && j < x.j:
			tag = OpReplace
		case i < x.i:
			tag = OpDelete
		case j < x.j:
			tag = OpInsert
		default:
			tag = -1
		}
		if tag >= 0 {
			ops = append(ops, Opcode{Tag: tag, I1: i, I2: x.i, J1: j, J2: x.j})
		}
		i, j = x.i+x.size, x.j+x.size
		if x.size > 0 {
			ops = append(ops, Opcode{Tag: OpEqual, I1: x.i, I2: i, J1: x.j, J2: j})
		}
	}
	return ops
}
