package containers

// Stack is a LIFO stack backed by a slice allocated once with a fixed capacity.
type Stack[T any] struct {
	data []T
}

func NewStack[T any](capacity int) *Stack[T] {
	return &Stack[T]{
		data: make([]T, 0, capacity),
	}
}

// Push adds value on top of the stack. Returns false when the stack is at capacity.
func (s *Stack[T]) Push(value T) bool {
	if len(s.data) == cap(s.data) {
		return false
	}
	s.data = append(s.data, value)
	return true
}

// Pop removes and returns the top of the stack.
func (s *Stack[T]) Pop() (T, bool) {
	var zero T
	if len(s.data) == 0 {
		return zero, false
	}
	last := len(s.data) - 1
	value := s.data[last]
	s.data[last] = zero
	s.data = s.data[:last]
	return value, true
}

func (s *Stack[T]) Len() int {
	return len(s.data)
}

func (s *Stack[T]) IsEmpty() bool {
	return len(s.data) == 0
}
