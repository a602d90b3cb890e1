package outline

// Item is one element of a sibling-list outline. Exactly one of Node and Group
// is set: a Group holds the children of the Node immediately before it.
type Item struct {
	Node  Node
	Group Sequence
}

// Sequence is an outline in sibling-list form, where nesting is expressed by a
// Group following its parent rather than by the parent's own Children.
type Sequence []Item

// N wraps a node as a sequence item.
func N(n Node) Item { return Item{Node: n} }

// G wraps nested items as a group belonging to the preceding node.
func G(items ...Item) Item { return Item{Group: Sequence(items)} }

// Nodes converts the sequence into tree form. A group is attached after any
// children its preceding node already carries, consecutive groups all attach to
// the same node, and a group with no preceding node is spliced in at the
// current level.
func (s Sequence) Nodes() []Node {
	var nodes []Node
	for _, it := range s {
		switch {
		case it.Node != nil:
			nodes = append(nodes, it.Node)
		case it.Group != nil:
			kids := it.Group.Nodes()
			if len(kids) == 0 {
				continue
			}
			if len(nodes) == 0 {
				nodes = append(nodes, kids...)
				continue
			}
			last := len(nodes) - 1
			nodes[last] = withExtraChildren(nodes[last], kids)
		}
	}
	return nodes
}

type groupedNode struct {
	Node
	extra []Node
}

func withExtraChildren(n Node, extra []Node) Node {
	if g, ok := n.(*groupedNode); ok {
		merged := make([]Node, 0, len(g.extra)+len(extra))
		merged = append(merged, g.extra...)
		merged = append(merged, extra...)
		return &groupedNode{Node: g.Node, extra: merged}
	}
	return &groupedNode{Node: n, extra: extra}
}

func (g *groupedNode) Children() []Node {
	own := g.Node.Children()
	kids := make([]Node, 0, len(own)+len(g.extra))
	kids = append(kids, own...)
	return append(kids, g.extra...)
}
