package scene

// WalkBreadth visits root and its descendants level by level, children in
// slice order. Returning false from fn skips that node's children.
func WalkBreadth(root *Node, fn func(n *Node) bool) {
	if root == nil {
		return
	}
	queue := []*Node{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n == nil {
			continue
		}
		if fn(n) {
			queue = append(queue, n.Children...)
		}
	}
}

// WalkDepth visits root and its descendants in pre-order.
// Returning false from fn skips that node's children.
func WalkDepth(root *Node, fn func(n *Node) bool) {
	if root == nil {
		return
	}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil {
			continue
		}
		if !fn(n) {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// Depth returns the number of ancestors above n.
func (n *Node) Depth() int {
	d := 0
	for k := n.Parent; k != nil; k = k.Parent {
		d++
	}
	return d
}
