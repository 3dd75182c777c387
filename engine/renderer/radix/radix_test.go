package radix

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	key   uint64
	order int
}

func TestSortIsStable(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	const n = 2000
	keys := make([]uint64, n)
	values := make([]item, n)
	for i := range keys {
		keys[i] = uint64(r.Intn(50))
		values[i] = item{key: keys[i], order: i}
	}

	expected := append([]item(nil), values...)
	sort.SliceStable(expected, func(i, j int) bool { return expected[i].key < expected[j].key })

	Sort(keys, values, n)

	assert.Equal(t, expected, values)
	for i := range keys {
		assert.Equal(t, values[i].key, keys[i])
	}
}

func TestSortLargeKeys(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	const n = 500
	keys := make([]uint64, n)
	values := make([]int, n)
	for i := range keys {
		keys[i] = r.Uint64()
		values[i] = i
	}
	keys[0] = ^uint64(0)
	original := append([]uint64(nil), keys...)

	NewSorter[int](n).Sort(keys, values, n)

	require.True(t, sort.SliceIsSorted(keys, func(i, j int) bool { return keys[i] < keys[j] }))
	for i := range keys {
		assert.Equal(t, original[values[i]], keys[i])
	}
}

func TestAlreadySortedExitsEarly(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	const n = 256
	keys := make([]uint64, n)
	for i := range keys {
		keys[i] = r.Uint64()
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	values := make([]int, n)
	for i := range values {
		values[i] = i
	}
	wantKeys := append([]uint64(nil), keys...)
	wantValues := append([]int(nil), values...)

	passes := Sort(keys, values, n)

	assert.Equal(t, 0, passes)
	assert.Equal(t, wantKeys, keys)
	assert.Equal(t, wantValues, values)
}

func TestSortOnlyTouchesLength(t *testing.T) {
	keys := []uint64{3, 1, 2, 0, 0}
	values := []string{"c", "a", "b", "x", "y"}

	Sort(keys, values, 3)

	assert.Equal(t, []uint64{1, 2, 3, 0, 0}, keys)
	assert.Equal(t, []string{"a", "b", "c", "x", "y"}, values)
}

func TestSortDegenerateInputs(t *testing.T) {
	assert.Equal(t, 0, Sort[int](nil, nil, 0))

	one := []uint64{9}
	assert.Equal(t, 0, Sort(one, []int{1}, 1))
	assert.Equal(t, []uint64{9}, one)

	equal := []uint64{5, 5, 5}
	vals := []int{0, 1, 2}
	assert.Equal(t, 0, Sort(equal, vals, 3))
	assert.Equal(t, []int{0, 1, 2}, vals)
}

func TestSorterReleasesValues(t *testing.T) {
	s := NewSorter[*int](4)
	a, b := 1, 2
	keys := []uint64{2, 1}
	values := []*int{&a, &b}

	s.Sort(keys, values, 2)

	assert.Equal(t, []*int{&b, &a}, values)
	for bk := 0; bk < base; bk++ {
		for _, v := range s.bucketValues[bk] {
			assert.Nil(t, v)
		}
	}
	for _, v := range s.tmpValues {
		assert.Nil(t, v)
	}
}

func BenchmarkSortRandom(b *testing.B) {
	r := rand.New(rand.NewSource(1))
	const n = 4096
	src := make([]uint64, n)
	for i := range src {
		src[i] = r.Uint64() >> 16
	}
	keys := make([]uint64, n)
	values := make([]int, n)
	s := NewSorter[int](n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(keys, src)
		s.Sort(keys, values, n)
	}
}
