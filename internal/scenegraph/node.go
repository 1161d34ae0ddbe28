// Package scenegraph provides the minimal placement context observers hang
// off: a named node with a parent reference and a local transform. Transform
// composition and graph traversal belong to the rendering side; this package
// only stores what the observers produce.
package scenegraph

import "github.com/plasmadiag/sightline/internal/geometry"

// Node is one element of the placement graph.
type Node struct {
	name      string
	parent    *Node
	transform *geometry.Affine
}

// NewNode creates a free-standing node with an identity transform.
func NewNode(name string) *Node {
	return &Node{name: name, transform: geometry.Identity()}
}

// Name returns the node name. Names are not required to be unique.
func (n *Node) Name() string { return n.name }

// SetName renames the node.
func (n *Node) SetName(name string) { n.name = name }

// Parent returns the node's parent, or nil for a root node.
func (n *Node) Parent() *Node { return n.parent }

// SetParent reattaches the node under a new parent. A node has at most one
// parent; reattaching transfers ownership.
func (n *Node) SetParent(parent *Node) { n.parent = parent }

// Transform returns the node's local transform relative to its parent.
func (n *Node) Transform() *geometry.Affine { return n.transform }

// SetTransform replaces the node's local transform. A nil transform resets to
// identity.
func (n *Node) SetTransform(t *geometry.Affine) {
	if t == nil {
		t = geometry.Identity()
	}
	n.transform = t
}
