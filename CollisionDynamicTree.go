package dyn2d

import (
	"math"

	"github.com/pkg/errors"
)

type TreeQueryCallback func(proxyID int) bool

type TreeRayCastCallback func(input RayCastInput, proxyID int) float64

const nullNode = -1

/// This is used to fatten AABBs in the dynamic tree. This is used to predict
/// the future position based on the current displacement.
/// This is a dimensionless multiplier.
const aabbMultiplier = 2.0

type treeNode struct {
	/// Enlarged AABB
	aabb AABB

	userData interface{}

	// parent, or next on the free list
	parent int

	child1 int
	child2 int

	// leaf = 0, free node = -1
	height int
}

func (node treeNode) isLeaf() bool {
	return node.child1 == nullNode
}

/// A dynamic AABB tree broad-phase, inspired by Nathanael Presson's btDbvt.
/// A dynamic tree arranges data in a binary tree to accelerate
/// queries such as volume queries and ray casts. Leafs are proxies
/// with an AABB. In the tree we expand the proxy AABB by the margin
/// so that the proxy AABB is bigger than the client object. This allows the client
/// object to move by small amounts without triggering a tree update.
///
/// Nodes are pooled and relocatable, so we use node indices rather than pointers.
type DynamicTree struct {
	root int

	nodes     []treeNode
	nodeCount int
	freeList  int

	margin float64

	insertionCount int
}

/// NewDynamicTree creates an empty tree whose leaves are fattened by margin.
func NewDynamicTree(margin float64) *DynamicTree {
	tree := &DynamicTree{
		root:   nullNode,
		margin: margin,
	}
	tree.grow(16)
	return tree
}

// grow extends the node pool to capacity and threads the new nodes onto the
// free list.
func (tree *DynamicTree) grow(capacity int) {
	start := len(tree.nodes)
	tree.nodes = append(tree.nodes, make([]treeNode, capacity-start)...)

	for i := start; i < capacity-1; i++ {
		tree.nodes[i].parent = i + 1
		tree.nodes[i].height = -1
	}
	tree.nodes[capacity-1].parent = nullNode
	tree.nodes[capacity-1].height = -1
	tree.freeList = start
}

// Allocate a node from the pool. Grow the pool if necessary.
func (tree *DynamicTree) allocateNode() int {
	if tree.freeList == nullNode {
		Assert(tree.nodeCount == len(tree.nodes))
		tree.grow(2 * len(tree.nodes))
	}

	// Peel a node off the free list.
	nodeID := tree.freeList
	tree.freeList = tree.nodes[nodeID].parent
	tree.nodes[nodeID] = treeNode{
		parent: nullNode,
		child1: nullNode,
		child2: nullNode,
	}
	tree.nodeCount++

	return nodeID
}

// Return a node to the pool.
func (tree *DynamicTree) freeNode(nodeID int) {
	Assert(0 <= nodeID && nodeID < len(tree.nodes))
	Assert(0 < tree.nodeCount)
	tree.nodes[nodeID].parent = tree.freeList
	tree.nodes[nodeID].userData = nil
	tree.nodes[nodeID].height = -1
	tree.freeList = nodeID
	tree.nodeCount--
}

/// Create a proxy in the tree as a leaf node. We return the index
/// of the node instead of a pointer so that we can grow
/// the node pool.
func (tree *DynamicTree) CreateProxy(aabb AABB, userData interface{}) int {
	proxyID := tree.allocateNode()

	tree.nodes[proxyID].aabb = aabb.Expanded(tree.margin)
	tree.nodes[proxyID].userData = userData
	tree.nodes[proxyID].height = 0

	tree.insertLeaf(proxyID)

	return proxyID
}

/// Destroy a proxy. This asserts if the id is invalid.
func (tree *DynamicTree) DestroyProxy(proxyID int) {
	Assert(0 <= proxyID && proxyID < len(tree.nodes))
	Assert(tree.nodes[proxyID].isLeaf())

	tree.removeLeaf(proxyID)
	tree.freeNode(proxyID)
}

/// Move a proxy with a swepted AABB. If the proxy has moved outside of its fattened AABB,
/// then the proxy is removed from the tree and re-inserted. Otherwise
/// the function returns immediately.
/// @return true if the proxy was re-inserted.
func (tree *DynamicTree) MoveProxy(proxyID int, aabb AABB, displacement Vec2) bool {
	Assert(0 <= proxyID && proxyID < len(tree.nodes))
	Assert(tree.nodes[proxyID].isLeaf())

	if tree.nodes[proxyID].aabb.Contains(aabb) {
		return false
	}

	tree.removeLeaf(proxyID)

	// Extend AABB.
	b := aabb.Expanded(tree.margin)

	// Predict AABB displacement.
	d := displacement.Mul(aabbMultiplier)

	if d.X < 0.0 {
		b.LowerBound.X += d.X
	} else {
		b.UpperBound.X += d.X
	}

	if d.Y < 0.0 {
		b.LowerBound.Y += d.Y
	} else {
		b.UpperBound.Y += d.Y
	}

	tree.nodes[proxyID].aabb = b

	tree.insertLeaf(proxyID)

	return true
}

/// Get proxy user data.
func (tree *DynamicTree) UserData(proxyID int) interface{} {
	Assert(0 <= proxyID && proxyID < len(tree.nodes))
	return tree.nodes[proxyID].userData
}

/// Get the fat AABB for a proxy.
func (tree *DynamicTree) FatAABB(proxyID int) AABB {
	Assert(0 <= proxyID && proxyID < len(tree.nodes))
	return tree.nodes[proxyID].aabb
}

/// Query an AABB for overlapping proxies. The callback
/// is called for each proxy that overlaps the supplied AABB.
/// Returning false from the callback stops the query.
func (tree *DynamicTree) Query(callback TreeQueryCallback, aabb AABB) {
	stack := newGrowableStack(64)
	stack.Push(tree.root)

	for stack.Count() > 0 {
		nodeID := stack.Pop()
		if nodeID == nullNode {
			continue
		}

		node := &tree.nodes[nodeID]

		if node.aabb.Overlaps(aabb) {
			if node.isLeaf() {
				if !callback(nodeID) {
					return
				}
			} else {
				stack.Push(node.child1)
				stack.Push(node.child2)
			}
		}
	}
}

/// Ray-cast against the proxies in the tree. This relies on the callback
/// to perform a exact ray-cast in the case were the proxy contains a shape.
/// The callback also performs the any collision filtering. This has performance
/// roughly equal to k * log(n), where k is the number of collisions and n is the
/// number of proxies in the tree.
/// The callback returns 0 to terminate, a fraction to clip the ray or a
/// negative value to ignore the proxy.
func (tree *DynamicTree) RayCast(callback TreeRayCastCallback, input RayCastInput) {
	p1 := input.P1
	p2 := input.P2
	r, length := p2.Sub(p1).Normalized()
	if length < Epsilon {
		return
	}

	// v is perpendicular to the segment.
	v := CrossSV(1.0, r)
	absV := v.Abs()

	// Separating axis for segment (Gino, p80).
	// |dot(v, p1 - c)| > dot(|v|, h)

	maxFraction := input.MaxFraction

	// Build a bounding box for the segment.
	segmentAABB := func() AABB {
		t := p1.Add(p2.Sub(p1).Mul(maxFraction))
		return MakeAABB(MinVec2(p1, t), MaxVec2(p1, t))
	}
	segment := segmentAABB()

	stack := newGrowableStack(64)
	stack.Push(tree.root)

	for stack.Count() > 0 {
		nodeID := stack.Pop()
		if nodeID == nullNode {
			continue
		}

		node := &tree.nodes[nodeID]

		if !node.aabb.Overlaps(segment) {
			continue
		}

		c := node.aabb.Center()
		h := node.aabb.Extents()
		separation := math.Abs(v.Dot(p1.Sub(c))) - absV.Dot(h)
		if separation > 0.0 {
			continue
		}

		if !node.isLeaf() {
			stack.Push(node.child1)
			stack.Push(node.child2)
			continue
		}

		value := callback(RayCastInput{P1: p1, P2: p2, MaxFraction: maxFraction}, nodeID)

		if value == 0.0 {
			// The client has terminated the ray cast.
			return
		}

		if value > 0.0 {
			// Update segment bounding box.
			maxFraction = value
			segment = segmentAABB()
		}
	}
}

func (tree *DynamicTree) insertLeaf(leaf int) {
	tree.insertionCount++

	if tree.root == nullNode {
		tree.root = leaf
		tree.nodes[leaf].parent = nullNode
		return
	}

	// Find the best sibling for this node
	leafAABB := tree.nodes[leaf].aabb
	index := tree.root
	for !tree.nodes[index].isLeaf() {
		child1 := tree.nodes[index].child1
		child2 := tree.nodes[index].child2

		area := tree.nodes[index].aabb.Perimeter()
		combinedArea := tree.nodes[index].aabb.Combine(leafAABB).Perimeter()

		// Cost of creating a new parent for this node and the new leaf
		cost := 2.0 * combinedArea

		// Minimum cost of pushing the leaf further down the tree
		inheritanceCost := 2.0 * (combinedArea - area)

		cost1 := tree.descendCost(child1, leafAABB) + inheritanceCost
		cost2 := tree.descendCost(child2, leafAABB) + inheritanceCost

		// Descend according to the minimum cost.
		if cost < cost1 && cost < cost2 {
			break
		}

		if cost1 < cost2 {
			index = child1
		} else {
			index = child2
		}
	}

	sibling := index

	// Create a new parent.
	oldParent := tree.nodes[sibling].parent
	newParent := tree.allocateNode()
	tree.nodes[newParent].parent = oldParent
	tree.nodes[newParent].aabb = leafAABB.Combine(tree.nodes[sibling].aabb)
	tree.nodes[newParent].height = tree.nodes[sibling].height + 1
	tree.nodes[newParent].child1 = sibling
	tree.nodes[newParent].child2 = leaf
	tree.nodes[sibling].parent = newParent
	tree.nodes[leaf].parent = newParent

	if oldParent != nullNode {
		// The sibling was not the root.
		if tree.nodes[oldParent].child1 == sibling {
			tree.nodes[oldParent].child1 = newParent
		} else {
			tree.nodes[oldParent].child2 = newParent
		}
	} else {
		tree.root = newParent
	}

	// Walk back up the tree fixing heights and AABBs
	tree.refit(tree.nodes[leaf].parent)
}

// descendCost is the growth in perimeter of child when it absorbs leafAABB.
func (tree *DynamicTree) descendCost(child int, leafAABB AABB) float64 {
	combined := leafAABB.Combine(tree.nodes[child].aabb).Perimeter()
	if tree.nodes[child].isLeaf() {
		return combined
	}
	return combined - tree.nodes[child].aabb.Perimeter()
}

func (tree *DynamicTree) refit(index int) {
	for index != nullNode {
		index = tree.balance(index)

		child1 := tree.nodes[index].child1
		child2 := tree.nodes[index].child2

		Assert(child1 != nullNode)
		Assert(child2 != nullNode)

		tree.nodes[index].height = 1 + maxInt(tree.nodes[child1].height, tree.nodes[child2].height)
		tree.nodes[index].aabb = tree.nodes[child1].aabb.Combine(tree.nodes[child2].aabb)

		index = tree.nodes[index].parent
	}
}

func (tree *DynamicTree) removeLeaf(leaf int) {
	if leaf == tree.root {
		tree.root = nullNode
		return
	}

	parent := tree.nodes[leaf].parent
	grandParent := tree.nodes[parent].parent
	sibling := tree.nodes[parent].child1
	if sibling == leaf {
		sibling = tree.nodes[parent].child2
	}

	if grandParent == nullNode {
		tree.root = sibling
		tree.nodes[sibling].parent = nullNode
		tree.freeNode(parent)
		return
	}

	// Destroy parent and connect sibling to grandParent.
	if tree.nodes[grandParent].child1 == parent {
		tree.nodes[grandParent].child1 = sibling
	} else {
		tree.nodes[grandParent].child2 = sibling
	}
	tree.nodes[sibling].parent = grandParent
	tree.freeNode(parent)

	// Adjust ancestor bounds.
	tree.refit(grandParent)
}

// Perform a left or right rotation if node A is imbalanced.
// Returns the new root index.
func (tree *DynamicTree) balance(iA int) int {
	Assert(iA != nullNode)

	A := &tree.nodes[iA]
	if A.isLeaf() || A.height < 2 {
		return iA
	}

	iB := A.child1
	iC := A.child2

	B := &tree.nodes[iB]
	C := &tree.nodes[iC]

	balance := C.height - B.height

	// Rotate C up
	if balance > 1 {
		iF := C.child1
		iG := C.child2
		F := &tree.nodes[iF]
		G := &tree.nodes[iG]

		// Swap A and C
		C.child1 = iA
		C.parent = A.parent
		A.parent = iC

		// A's old parent should point to C
		tree.replaceChild(C.parent, iA, iC)

		// Rotate
		if F.height > G.height {
			C.child2 = iF
			A.child2 = iG
			G.parent = iA
			A.aabb = B.aabb.Combine(G.aabb)
			C.aabb = A.aabb.Combine(F.aabb)

			A.height = 1 + maxInt(B.height, G.height)
			C.height = 1 + maxInt(A.height, F.height)
		} else {
			C.child2 = iG
			A.child2 = iF
			F.parent = iA
			A.aabb = B.aabb.Combine(F.aabb)
			C.aabb = A.aabb.Combine(G.aabb)

			A.height = 1 + maxInt(B.height, F.height)
			C.height = 1 + maxInt(A.height, G.height)
		}

		return iC
	}

	// Rotate B up
	if balance < -1 {
		iD := B.child1
		iE := B.child2
		D := &tree.nodes[iD]
		E := &tree.nodes[iE]

		// Swap A and B
		B.child1 = iA
		B.parent = A.parent
		A.parent = iB

		// A's old parent should point to B
		tree.replaceChild(B.parent, iA, iB)

		// Rotate
		if D.height > E.height {
			B.child2 = iD
			A.child1 = iE
			E.parent = iA
			A.aabb = C.aabb.Combine(E.aabb)
			B.aabb = A.aabb.Combine(D.aabb)

			A.height = 1 + maxInt(C.height, E.height)
			B.height = 1 + maxInt(A.height, D.height)
		} else {
			B.child2 = iE
			A.child1 = iD
			D.parent = iA
			A.aabb = C.aabb.Combine(D.aabb)
			B.aabb = A.aabb.Combine(E.aabb)

			A.height = 1 + maxInt(C.height, D.height)
			B.height = 1 + maxInt(A.height, E.height)
		}

		return iB
	}

	return iA
}

func (tree *DynamicTree) replaceChild(parent, oldChild, newChild int) {
	if parent == nullNode {
		tree.root = newChild
		return
	}

	if tree.nodes[parent].child1 == oldChild {
		tree.nodes[parent].child1 = newChild
	} else {
		Assert(tree.nodes[parent].child2 == oldChild)
		tree.nodes[parent].child2 = newChild
	}
}

/// Height of the root, zero for an empty tree.
func (tree *DynamicTree) Height() int {
	if tree.root == nullNode {
		return 0
	}
	return tree.nodes[tree.root].height
}

/// Get the ratio of the sum of the node areas to the root area.
func (tree *DynamicTree) AreaRatio() float64 {
	if tree.root == nullNode {
		return 0.0
	}

	rootArea := tree.nodes[tree.root].aabb.Perimeter()

	totalArea := 0.0
	for i := range tree.nodes {
		if tree.nodes[i].height < 0 {
			// Free node in pool
			continue
		}
		totalArea += tree.nodes[i].aabb.Perimeter()
	}

	return totalArea / rootArea
}

/// Get the maximum balance of an node in the tree. The balance is the difference
/// in height of the two children of a node.
func (tree *DynamicTree) MaxBalance() int {
	maxBalance := 0
	for i := range tree.nodes {
		node := &tree.nodes[i]
		if node.height <= 1 {
			continue
		}

		balance := tree.nodes[node.child2].height - tree.nodes[node.child1].height
		if balance < 0 {
			balance = -balance
		}
		maxBalance = maxInt(maxBalance, balance)
	}

	return maxBalance
}

/// Validate checks the parent links, the heights and the AABBs of the whole
/// tree and the size of the free list.
func (tree *DynamicTree) Validate() error {
	if tree.root != nullNode && tree.nodes[tree.root].parent != nullNode {
		return errors.New("dynamic tree: root has a parent")
	}

	if err := tree.validate(tree.root); err != nil {
		return err
	}

	freeCount := 0
	for freeIndex := tree.freeList; freeIndex != nullNode; freeIndex = tree.nodes[freeIndex].parent {
		freeCount++
	}

	if tree.nodeCount+freeCount != len(tree.nodes) {
		return errors.Errorf("dynamic tree: %d nodes in use and %d free in a pool of %d",
			tree.nodeCount, freeCount, len(tree.nodes))
	}
	return nil
}

func (tree *DynamicTree) validate(index int) error {
	if index == nullNode {
		return nil
	}

	node := &tree.nodes[index]
	if node.isLeaf() {
		if node.child2 != nullNode || node.height != 0 {
			return errors.Errorf("dynamic tree: malformed leaf %d", index)
		}
		return nil
	}

	child1 := node.child1
	child2 := node.child2

	if tree.nodes[child1].parent != index || tree.nodes[child2].parent != index {
		return errors.Errorf("dynamic tree: broken parent link below %d", index)
	}

	if node.height != 1+maxInt(tree.nodes[child1].height, tree.nodes[child2].height) {
		return errors.Errorf("dynamic tree: wrong height at %d", index)
	}

	if node.aabb != tree.nodes[child1].aabb.Combine(tree.nodes[child2].aabb) {
		return errors.Errorf("dynamic tree: node %d does not bound its children", index)
	}

	if err := tree.validate(child1); err != nil {
		return err
	}
	return tree.validate(child2)
}

/// Shift the world origin. Useful for large worlds.
func (tree *DynamicTree) ShiftOrigin(newOrigin Vec2) {
	for i := range tree.nodes {
		tree.nodes[i].aabb.LowerBound = tree.nodes[i].aabb.LowerBound.Sub(newOrigin)
		tree.nodes[i].aabb.UpperBound = tree.nodes[i].aabb.UpperBound.Sub(newOrigin)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
