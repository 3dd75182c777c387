// Package radix implements the stable key-only sort used to order render
// commands by their 64-bit priority key.
package radix

const base = 10

// Sorter is a least-significant-digit, base-10 radix sort over uint64 keys
// carrying a parallel slice of values. The scratch buffers are kept between
// calls so that sorting the same amount of commands every frame does not
// allocate.
type Sorter[V any] struct {
	bucketKeys   [base][]uint64
	bucketValues [base][]V
	counts       [base]int
	tmpKeys      []uint64
	tmpValues    []V
}

// NewSorter returns a sorter with scratch space for capacity elements. It
// grows on demand when asked to sort more.
func NewSorter[V any](capacity int) *Sorter[V] {
	s := &Sorter[V]{}
	s.grow(capacity)
	return s
}

func (s *Sorter[V]) grow(n int) {
	if len(s.tmpKeys) >= n {
		return
	}
	for b := 0; b < base; b++ {
		s.bucketKeys[b] = make([]uint64, n)
		s.bucketValues[b] = make([]V, n)
	}
	s.tmpKeys = make([]uint64, n)
	s.tmpValues = make([]V, n)
}

// Sort orders keys[:length] ascending and applies the same permutation to
// values[:length]. Equal keys keep their relative order. Elements past length
// are left untouched.
//
// It returns the number of distribution passes that were applied. An input
// that is already in non-decreasing order is detected during the first scan
// and returns 0 without moving anything.
func (s *Sorter[V]) Sort(keys []uint64, values []V, length int) int {
	if length <= 1 {
		return 0
	}
	s.grow(length)

	var maxKey uint64
	for i := 0; i < length; i++ {
		if keys[i] > maxKey {
			maxKey = keys[i]
		}
	}
	digits := 1
	for m := maxKey / base; m > 0; m /= base {
		digits++
	}

	passes := 0
	place := uint64(1)
	for d := 0; d < digits; d++ {
		s.counts = [base]int{}
		sorted := true
		for i := 0; i < length; i++ {
			k := keys[i]
			if i > 0 && k < keys[i-1] {
				sorted = false
			}
			b := (k / place) % base
			n := s.counts[b]
			s.bucketKeys[b][n] = k
			s.bucketValues[b][n] = values[i]
			s.counts[b] = n + 1
		}
		if sorted {
			// the order left by the previous passes is already final
			break
		}

		n := 0
		for b := 0; b < base; b++ {
			c := s.counts[b]
			copy(s.tmpKeys[n:], s.bucketKeys[b][:c])
			copy(s.tmpValues[n:], s.bucketValues[b][:c])
			n += c
		}
		copy(keys, s.tmpKeys[:length])
		copy(values, s.tmpValues[:length])
		passes++

		if d+1 < digits {
			place *= base
		}
	}

	s.release(length)
	return passes
}

// release drops the references held by the value scratch buffers so sorted
// values do not stay reachable through the sorter.
func (s *Sorter[V]) release(length int) {
	for b := 0; b < base; b++ {
		clear(s.bucketValues[b][:length])
	}
	clear(s.tmpValues[:length])
}

// Sort sorts keys[:length] and values[:length] with a throwaway Sorter.
func Sort[V any](keys []uint64, values []V, length int) int {
	return NewSorter[V](length).Sort(keys, values, length)
}
