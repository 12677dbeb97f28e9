// Package search implements the parallel PUCT/MCTS core: leaf
// selection under virtual loss, batched-with-prefetch NN evaluation,
// and statistics back-propagation, arena-indexed rather than
// pointer-linked so stable Refs survive concurrent access without
// pointer-aliasing hazards.
package search

import (
	"kestrel/internal/arena"
	"kestrel/internal/chess"
)

// NodeRef is a stable, arena-indexed reference to a Node. The zero
// value is not meaningful on its own — use NilRef.
type NodeRef = arena.Ref

// NilRef is the null NodeRef, mirroring the role of a null parent/
// child/sibling pointer in the original sibling-list tree.
const NilRef = arena.NilRef

// Node is one tree vertex, addressed by NodeRef rather than by
// pointer. Every field here is guarded by the owning Tree's RWMutex
// (nodes_mutex in spec.md §5's naming) except where noted.
type Node struct {
	Position *chess.Position // side-to-move's position at this node
	Move     chess.Move      // move that produced this node; zero at root

	Parent  NodeRef
	Child   NodeRef // first child
	Sibling NodeRef // next sibling

	N         int64   // visit count
	NInFlight int64   // reservation count (virtual loss)
	W         float64 // accumulated value
	Q         float64 // W/N when N>0, else 0 (undefined per spec, treated as 0)
	V         float64 // last leaf evaluation written at this node
	P         float64 // policy prior from parent's evaluation

	IsTerminal   bool
	Repetitions  int
	NoCapturePly int32
	PlyCount     int32

	MaxDepth  int32
	FullDepth int32
}

// Tree owns the arena and the single RWMutex that is spec.md §5's
// nodes_mutex: shared for descent, exclusive for reservation and
// back-prop writes.
type Tree struct {
	arena *arena.Slab[Node]
	root  NodeRef

	// BestChild and TotalPlayouts are written by Backpropagator under
	// the exclusive lock, per spec.md §4.5/§4.6.
	BestChild     NodeRef
	TotalPlayouts int64
}

// NewTree allocates an arena sized for maxNodes and installs a fresh
// root at rootPos.
func NewTree(maxNodes int, rootPos *chess.Position) (*Tree, error) {
	a := arena.New[Node](maxNodes)
	ref, n, ok := a.Alloc()
	if !ok {
		return nil, errArenaExhausted
	}
	*n = Node{Position: rootPos, Parent: NilRef, Child: NilRef, Sibling: NilRef}
	return &Tree{arena: a, root: ref, BestChild: NilRef}, nil
}

// Root returns the tree's root reference.
func (t *Tree) Root() NodeRef { return t.root }

// Get resolves ref to its Node. Callers must hold the appropriate lock.
func (t *Tree) Get(ref NodeRef) *Node { return t.arena.Get(ref) }

// Alloc reserves a fresh Node slot. Callers must hold the exclusive
// lock (Expander does so explicitly around its allocation loop; tests
// building a tree by hand run single-threaded and may call this before
// any goroutine can observe the tree).
func (t *Tree) Alloc() (NodeRef, *Node, bool) { return t.arena.Alloc() }

func (t *Tree) Lock()    { t.arena.Lock() }
func (t *Tree) Unlock()  { t.arena.Unlock() }
func (t *Tree) RLock()   { t.arena.RLock() }
func (t *Tree) RUnlock() { t.arena.RUnlock() }

// NodeCount reports how many nodes have been allocated so far.
func (t *Tree) NodeCount() int { return t.arena.Len() }
