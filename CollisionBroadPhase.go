package dyn2d

import (
	"sort"
)

type BroadPhaseAddPairCallback func(userDataA interface{}, userDataB interface{})

type proxyPair struct {
	proxyIDA int
	proxyIDB int
}

type pairByLessThan []proxyPair

func (a pairByLessThan) Len() int      { return len(a) }
func (a pairByLessThan) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a pairByLessThan) Less(i, j int) bool {
	if a[i].proxyIDA != a[j].proxyIDA {
		return a[i].proxyIDA < a[j].proxyIDA
	}
	return a[i].proxyIDB < a[j].proxyIDB
}

/// The broad-phase is used for computing pairs and performing volume queries and ray casts.
/// This broad-phase does not persist pairs. Instead, this reports potentially new pairs.
/// It is up to the client to consume the new pairs and to track subsequent overlap.
type BroadPhase struct {
	tree *DynamicTree

	proxyCount int

	pairBuffer   []proxyPair
	queryProxyID int
}

func NewBroadPhase(margin float64) *BroadPhase {
	return &BroadPhase{
		tree:       NewDynamicTree(margin),
		pairBuffer: make([]proxyPair, 0, 16),
	}
}

/// Create a proxy with an initial AABB. Pairs are not reported until
/// UpdatePairs is called.
func (bp *BroadPhase) CreateProxy(aabb AABB, userData interface{}) int {
	proxyID := bp.tree.CreateProxy(aabb, userData)
	bp.proxyCount++
	return proxyID
}

/// Destroy a proxy. It is up to the client to remove any pairs.
func (bp *BroadPhase) DestroyProxy(proxyID int) {
	bp.proxyCount--
	bp.tree.DestroyProxy(proxyID)
}

/// Call MoveProxy as many times as you like, then when you are done
/// call UpdatePairs to finalized the proxy pairs (for your time step).
func (bp *BroadPhase) MoveProxy(proxyID int, aabb AABB, displacement Vec2) {
	bp.tree.MoveProxy(proxyID, aabb, displacement)
}

func (bp *BroadPhase) UserData(proxyID int) interface{} {
	return bp.tree.UserData(proxyID)
}

func (bp *BroadPhase) FatAABB(proxyID int) AABB {
	return bp.tree.FatAABB(proxyID)
}

/// Test overlap of fat AABBs.
func (bp *BroadPhase) TestOverlap(proxyIDA, proxyIDB int) bool {
	return bp.tree.FatAABB(proxyIDA).Overlaps(bp.tree.FatAABB(proxyIDB))
}

func (bp *BroadPhase) ProxyCount() int {
	return bp.proxyCount
}

func (bp *BroadPhase) Tree() *DynamicTree {
	return bp.tree
}

/// UpdatePairs queries the tree with the fat AABB of every proxy in
/// queryProxies and reports each overlapping pair once, ordered by proxy id.
/// A proxy never pairs with itself.
func (bp *BroadPhase) UpdatePairs(queryProxies []int, addPairCallback BroadPhaseAddPairCallback) {
	// Reset pair buffer
	bp.pairBuffer = bp.pairBuffer[:0]

	for _, proxyID := range queryProxies {
		if proxyID == nullNode {
			continue
		}
		bp.queryProxyID = proxyID

		// We have to query the tree with the fat AABB so that
		// we don't fail to create a pair that may touch later.
		bp.tree.Query(bp.queryCallback, bp.tree.FatAABB(proxyID))
	}

	// Sort the pair buffer to expose duplicates.
	sort.Sort(pairByLessThan(bp.pairBuffer))

	// Send the pairs back to the client.
	i := 0
	for i < len(bp.pairBuffer) {
		primaryPair := bp.pairBuffer[i]
		addPairCallback(bp.tree.UserData(primaryPair.proxyIDA), bp.tree.UserData(primaryPair.proxyIDB))
		i++

		// Skip any duplicate pairs.
		for i < len(bp.pairBuffer) && bp.pairBuffer[i] == primaryPair {
			i++
		}
	}
}

// This is called from DynamicTree.Query when we are gathering pairs.
func (bp *BroadPhase) queryCallback(proxyID int) bool {
	// A proxy cannot form a pair with itself.
	if proxyID == bp.queryProxyID {
		return true
	}

	pair := proxyPair{proxyIDA: proxyID, proxyIDB: bp.queryProxyID}
	if pair.proxyIDA > pair.proxyIDB {
		pair.proxyIDA, pair.proxyIDB = pair.proxyIDB, pair.proxyIDA
	}
	bp.pairBuffer = append(bp.pairBuffer, pair)

	return true
}

/// Query an AABB for overlapping proxies. The callback class
/// is called for each proxy that overlaps the supplied AABB.
func (bp *BroadPhase) Query(callback TreeQueryCallback, aabb AABB) {
	bp.tree.Query(callback, aabb)
}

/// Ray-cast against the proxies in the tree.
func (bp *BroadPhase) RayCast(callback TreeRayCastCallback, input RayCastInput) {
	bp.tree.RayCast(callback, input)
}

/// Shift the world origin. Useful for large worlds.
func (bp *BroadPhase) ShiftOrigin(newOrigin Vec2) {
	bp.tree.ShiftOrigin(newOrigin)
}
