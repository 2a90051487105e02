package dyn2d

// growableStack is a LIFO of node indices used by the tree traversals. The
// backing array is reused between pops.
type growableStack struct {
	items []int
}

func newGrowableStack(capacity int) *growableStack {
	return &growableStack{items: make([]int, 0, capacity)}
}

// Return the stack's length
func (s growableStack) Count() int {
	return len(s.items)
}

// Push a new element onto the stack
func (s *growableStack) Push(value int) {
	s.items = append(s.items, value)
}

// Remove the top element from the stack and return its value.
// If the stack is empty, return nullNode.
func (s *growableStack) Pop() int {
	n := len(s.items)
	if n == 0 {
		return nullNode
	}
	value := s.items[n-1]
	s.items = s.items[:n-1]
	return value
}
