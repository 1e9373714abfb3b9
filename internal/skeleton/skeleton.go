// Package skeleton holds the node hierarchy that animation clips drive and
// skinned meshes bind to.
package skeleton

import (
	"errors"
	"fmt"

	"github.com/Faultbox/rigview/pkg/math"
)

// ErrUnresolvedBoneReference is returned when a channel or bone names a node
// that does not exist in the skeleton.
var ErrUnresolvedBoneReference = errors.New("unresolved bone reference")

// UnresolvedBoneReferenceError carries the name that failed to resolve.
type UnresolvedBoneReferenceError struct {
	Name string
}

func (e *UnresolvedBoneReferenceError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnresolvedBoneReference, e.Name)
}

func (e *UnresolvedBoneReferenceError) Unwrap() error {
	return ErrUnresolvedBoneReference
}

// NoParent marks the root node.
const NoParent = -1

// Node is a named transform in the hierarchy.
type Node struct {
	Name     string
	Local    math.Mat4 // parent-relative transform, rewritten every tick
	Parent   int
	Children []int
}

// Skeleton is an arena of nodes addressed by stable integer index.
type Skeleton struct {
	nodes  []Node
	byName map[string]int
}

// New returns an empty skeleton.
func New() *Skeleton {
	return &Skeleton{byName: make(map[string]int)}
}

// Add appends a node under parent (NoParent for a root) and returns its index.
// When several nodes share a name the first one added wins lookups.
func (s *Skeleton) Add(name string, local math.Mat4, parent int) (int, error) {
	if parent != NoParent && (parent < 0 || parent >= len(s.nodes)) {
		return 0, fmt.Errorf("add node %q: parent index %d out of range", name, parent)
	}
	idx := len(s.nodes)
	s.nodes = append(s.nodes, Node{Name: name, Local: local, Parent: parent})
	if parent != NoParent {
		s.nodes[parent].Children = append(s.nodes[parent].Children, idx)
	}
	if _, ok := s.byName[name]; !ok {
		s.byName[name] = idx
	}
	return idx, nil
}

// Len returns the number of nodes.
func (s *Skeleton) Len() int {
	return len(s.nodes)
}

// Node returns the node at index i.
func (s *Skeleton) Node(i int) *Node {
	return &s.nodes[i]
}

// Find returns the index of the first node called name.
func (s *Skeleton) Find(name string) (int, bool) {
	i, ok := s.byName[name]
	return i, ok
}

// Resolve is Find with a typed error for unknown names.
func (s *Skeleton) Resolve(name string) (int, error) {
	if i, ok := s.byName[name]; ok {
		return i, nil
	}
	return 0, &UnresolvedBoneReferenceError{Name: name}
}

// Local returns the local transform of node i.
func (s *Skeleton) Local(i int) math.Mat4 {
	return s.nodes[i].Local
}

// SetLocal replaces the local transform of node i.
func (s *Skeleton) SetLocal(i int, m math.Mat4) {
	s.nodes[i].Local = m
}

// Parent returns the parent index of node i, or NoParent.
func (s *Skeleton) Parent(i int) int {
	return s.nodes[i].Parent
}

// Roots returns every node without a parent, in insertion order.
func (s *Skeleton) Roots() []int {
	var roots []int
	for i := range s.nodes {
		if s.nodes[i].Parent == NoParent {
			roots = append(roots, i)
		}
	}
	return roots
}

// Depth returns the number of ancestors of node i.
func (s *Skeleton) Depth(i int) int {
	d := 0
	for p := s.nodes[i].Parent; p != NoParent; p = s.nodes[p].Parent {
		d++
	}
	return d
}

// Walk visits every node depth-first, parents before children. Returning
// false from fn skips that node's subtree.
func (s *Skeleton) Walk(fn func(i int, n *Node) bool) {
	for _, r := range s.Roots() {
		s.walk(r, fn)
	}
}

func (s *Skeleton) walk(i int, fn func(int, *Node) bool) {
	if !fn(i, &s.nodes[i]) {
		return
	}
	for _, c := range s.nodes[i].Children {
		s.walk(c, fn)
	}
}

// World composes local transforms from the root down to node i.
func (s *Skeleton) World(i int) math.Mat4 {
	m := s.nodes[i].Local
	for p := s.nodes[i].Parent; p != NoParent; p = s.nodes[p].Parent {
		m = s.nodes[p].Local.Mul(m)
	}
	return m
}

// Snapshot copies every local transform, used to restore the rest pose.
func (s *Skeleton) Snapshot() []math.Mat4 {
	out := make([]math.Mat4, len(s.nodes))
	for i := range s.nodes {
		out[i] = s.nodes[i].Local
	}
	return out
}

// Restore writes back locals captured by Snapshot.
func (s *Skeleton) Restore(locals []math.Mat4) {
	for i := range locals {
		if i >= len(s.nodes) {
			return
		}
		s.nodes[i].Local = locals[i]
	}
}
