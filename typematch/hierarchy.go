package typematch

import (
	"reflect"
	"strings"
)

// TypeNode is one node of a hierarchy tree rooted at a concrete type.
type TypeNode struct {
	// Type is the type captured by this node.
	Type reflect.Type
	// Level is the distance from the root; the root is level 0.
	Level int
	// Order is the 1-based position among siblings; the root has order 0.
	Order int
	// Children hold the next, more general layer of the hierarchy.
	Children []*TypeNode

	parent *TypeNode
}

// Parent returns the node this node was derived from, or nil for the root.
func (n *TypeNode) Parent() *TypeNode { return n.parent }

// Find returns the node capturing t with the smallest level, searching
// breadth first so siblings are visited in order. It returns nil when t does
// not occur in the tree.
func (n *TypeNode) Find(t reflect.Type) *TypeNode {
	queue := []*TypeNode{n}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.Type == t {
			return cur
		}
		queue = append(queue, cur.Children...)
	}
	return nil
}

// Walk visits the tree depth first, parents before children, until fn
// returns false.
func (n *TypeNode) Walk(fn func(*TypeNode) bool) bool {
	if !fn(n) {
		return false
	}
	for _, child := range n.Children {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

// String renders the tree one node per line, indented by level.
func (n *TypeNode) String() string {
	var b strings.Builder
	n.Walk(func(node *TypeNode) bool {
		b.WriteString(strings.Repeat("  ", node.Level))
		b.WriteString(node.Type.String())
		b.WriteByte('\n')
		return true
	})
	return b.String()
}

// buildTree builds the hierarchy of root against the given interface
// universe.
func buildTree(root reflect.Type, universe []reflect.Type) *TypeNode {
	node := &TypeNode{Type: root}
	expand(node, universe, map[reflect.Type]bool{root: true})
	return node
}

func expand(node *TypeNode, universe []reflect.Type, path map[reflect.Type]bool) {
	for i, t := range nextLayer(node.Type, universe) {
		if path[t] {
			continue
		}
		child := &TypeNode{Type: t, Level: node.Level + 1, Order: i + 1, parent: node}
		node.Children = append(node.Children, child)
		path[t] = true
		expand(child, universe, path)
		delete(path, t)
	}
}

// supertypes lists everything t can stand in for: its embedded bases,
// nearest first, followed by the universe interfaces it implements.
func supertypes(t reflect.Type, universe []reflect.Type) []reflect.Type {
	out := embeddedBases(t)
	for _, iface := range universe {
		if iface != t && t.Implements(iface) {
			out = append(out, iface)
		}
	}
	return out
}

// nextLayer reduces the supertypes of t to the members not implied by any
// other member. When two interfaces imply each other the earlier one stays.
func nextLayer(t reflect.Type, universe []reflect.Type) []reflect.Type {
	all := supertypes(t, universe)
	implied := make([]map[reflect.Type]bool, len(all))
	for i, s := range all {
		implied[i] = make(map[reflect.Type]bool)
		for _, u := range supertypes(s, universe) {
			implied[i][u] = true
		}
	}

	var layer []reflect.Type
	for i, s := range all {
		redundant := false
		for j := range all {
			if i == j || !implied[j][s] {
				continue
			}
			if implied[i][all[j]] && j > i {
				continue
			}
			redundant = true
			break
		}
		if !redundant {
			layer = append(layer, s)
		}
	}
	return layer
}
