package equiv

import (
	"fmt"
	"strconv"
	"strings"
)

// Order tells the normalizer whether a node's children may be reordered.
type Order uint8

const (
	// Ordered children are compared position by position.
	Ordered Order = iota
	// Unordered children are always sorted before comparison.
	Unordered
	// MemberOrder children are sorted when IgnoreFieldOrder is set.
	MemberOrder
	// ArgumentOrder children are sorted when IgnoreAttributeArgOrder is set.
	ArgumentOrder
)

// Position is a 1-based line and column in the parsed text. The zero value
// means the position is unknown.
type Position struct {
	Line   int
	Column int
}

func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Node is a grammar-independent syntax tree node.
//
// Kind and Value are compared; Role and Name only label the node in
// divergence paths. Trivia such as comments never become nodes.
type Node struct {
	Kind     string
	Value    string
	Role     string
	Name     string
	Order    Order
	Pos      Position
	Children []*Node
}

// segment renders the node as one element of a divergence path. i is the
// node's index among its siblings.
func (n *Node) segment(i int) string {
	base := n.Kind
	if n.Role != "" {
		base = n.Role
	}
	switch {
	case n.Name != "":
		return base + " " + n.Name
	case n.Role == "" && i >= 0:
		return fmt.Sprintf("%s[%d]", base, i)
	}
	return base
}

// describe renders the node's kind and value for failure messages.
func (n *Node) describe() string {
	if n == nil {
		return "nothing"
	}
	if n.Value == "" {
		return n.Kind
	}
	return fmt.Sprintf("%s %s", n.Kind, strconv.Quote(n.Value))
}

// canonical renders the compared content of the subtree. Two subtrees
// with equal canonical forms compare equal.
func (n *Node) canonical() string {
	var b strings.Builder
	n.writeCanonical(&b)
	return b.String()
}

func (n *Node) writeCanonical(b *strings.Builder) {
	b.WriteString(n.Kind)
	if n.Value != "" {
		b.WriteByte('(')
		b.WriteString(strconv.Quote(n.Value))
		b.WriteByte(')')
	}
	if len(n.Children) == 0 {
		return
	}
	b.WriteByte('{')
	for i, c := range n.Children {
		if i > 0 {
			b.WriteByte(',')
		}
		c.writeCanonical(b)
	}
	b.WriteByte('}')
}
